package tuple

import (
	"github.com/cockroachdb/errors"
	"sketchagg/core"
)

const (
	MinNominalEntries     = 16
	MaxNominalEntries     = 1 << 26
	DefaultNominalEntries = 4096
)

// Engine adapts Sketch to the evaluator. Size is the nominal number of
// entries and NumValues the doubles kept per key.
type Engine struct {
	NumValues int
}

var _ core.Engine[*Sketch] = Engine{}

func (engine Engine) Defaults() core.Config {
	return core.Config{
		Size:     DefaultNominalEntries,
		Sampling: 1,
		Mode:     ModeSum,
		Seed:     core.DefaultSeed,
	}
}

func (engine Engine) Validate(config core.Config) error {
	n := config.Size
	if n < MinNominalEntries || n > MaxNominalEntries || n&(n-1) != 0 {
		return errors.Newf("nominal entries %d must be a power of 2 in [%d, %d]", n, MinNominalEntries, MaxNominalEntries)
	}
	if !(config.Sampling > 0 && config.Sampling <= 1) {
		return errors.Newf("sampling probability %v not in (0, 1]", config.Sampling)
	}
	switch config.Mode {
	case ModeSum, ModeMin, ModeMax:
	default:
		return errors.Newf("unknown summary mode %q", config.Mode)
	}
	if engine.NumValues < 1 {
		return errors.Newf("at least one value per key is required, got %d", engine.NumValues)
	}
	return nil
}

func (engine Engine) Build(config core.Config) (*Sketch, error) {
	return NewSketch(config.Size, engine.NumValues, config.Sampling, config.Mode, config.Seed), nil
}

func (engine Engine) Update(sketch *Sketch, key []byte, values []float64) (*Sketch, error) {
	if err := sketch.Update(key, values); err != nil {
		return nil, err
	}
	return sketch, nil
}

func (engine Engine) Merge(dst, src *Sketch) (*Sketch, error) {
	if err := dst.Union(src); err != nil {
		return nil, err
	}
	return dst, nil
}

func (engine Engine) Serialize(sketch *Sketch) ([]byte, error) {
	return sketch.MarshalMsg(nil)
}

func (engine Engine) Deserialize(buf []byte, config core.Config) (*Sketch, error) {
	sketch := NewSketch(config.Size, engine.NumValues, 1, config.Mode, config.Seed)
	rest, err := sketch.UnmarshalMsg(buf)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.Newf("%d trailing bytes after sketch", len(rest))
	}
	return sketch, nil
}

func (engine Engine) Estimate(sketch *Sketch) float64 {
	return sketch.Estimate()
}

func (engine Engine) RetainedCount(sketch *Sketch) int {
	return sketch.Retained()
}
