package core

import (
	"fmt"
	"strings"
)

// Phase is the role an evaluator plays in a distributed aggregation.
type Phase int

const (
	// Partial1 consumes raw rows and emits an intermediate record.
	Partial1 Phase = iota
	// Partial2 merges intermediate records into a combined one.
	Partial2
	// Final merges intermediate records into the final result.
	Final
	// Complete consumes raw rows and emits the final result.
	Complete
)

func (phase Phase) String() string {
	switch phase {
	case Partial1:
		return "PARTIAL1"
	case Partial2:
		return "PARTIAL2"
	case Final:
		return "FINAL"
	case Complete:
		return "COMPLETE"
	default:
		return fmt.Sprintf("Phase(%d)", int(phase))
	}
}

// ParsePhase accepts the phase name in any case.
func ParsePhase(name string) (Phase, error) {
	for _, phase := range []Phase{Partial1, Partial2, Final, Complete} {
		if strings.EqualFold(phase.String(), name) {
			return phase, nil
		}
	}
	return 0, schemaMismatchf("unknown phase %q", name)
}

func (phase Phase) consumesRows() bool {
	return phase == Partial1 || phase == Complete
}

func (phase Phase) valid() bool {
	return phase >= Partial1 && phase <= Complete
}
