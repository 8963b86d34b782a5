package core

import (
	"math"

	"github.com/cockroachdb/errors"
)

// DefaultSeed is the hash seed every engine uses unless told otherwise.
// Summaries built with different seeds cannot be merged.
const DefaultSeed uint64 = 9001

// Mode selects how an engine combines values for the same key.
type Mode string

// Config is the configuration a buffer binds on its first row or first
// merged partial. Zero fields mean "not set" when overlaying.
type Config struct {
	Size     int
	Sampling float64
	Mode     Mode
	Seed     uint64
}

// Overlay returns config with every non-zero field of other applied.
func (config Config) Overlay(other Config) Config {
	if other.Size != 0 {
		config.Size = other.Size
	}
	if other.Sampling != 0 {
		config.Sampling = other.Sampling
	}
	if other.Mode != "" {
		config.Mode = other.Mode
	}
	if other.Seed != 0 {
		config.Seed = other.Seed
	}
	return config
}

// Param names a trailing configuration column.
type Param uint8

const (
	ParamSize Param = iota
	ParamSampling
	ParamMode
	ParamSeed
)

func (param Param) String() string {
	switch param {
	case ParamSize:
		return "size"
	case ParamSampling:
		return "sampling"
	case ParamMode:
		return "mode"
	case ParamSeed:
		return "seed"
	}
	return "unknown"
}

func (param Param) accepts(kind Kind) bool {
	switch param {
	case ParamSize:
		return kind == KindInt32 || kind == KindInt64
	case ParamSampling:
		return kind == KindFloat32 || kind == KindFloat64
	case ParamMode:
		return kind == KindString
	case ParamSeed:
		return kind == KindInt64
	}
	return false
}

// same reports whether a and b agree on param.
func (param Param) same(a, b Config) bool {
	switch param {
	case ParamSize:
		return a.Size == b.Size
	case ParamSampling:
		return a.Sampling == b.Sampling
	case ParamMode:
		return a.Mode == b.Mode
	case ParamSeed:
		return a.Seed == b.Seed
	}
	return a == b
}

func (param Param) apply(config Config, value interface{}) (Config, error) {
	switch param {
	case ParamSize:
		n, ok := intValue(value)
		if !ok {
			return config, errors.Newf("size: unexpected value %T", value)
		}
		if n <= 0 || n > math.MaxInt32 {
			return config, errors.Newf("size: %d out of range", n)
		}
		config.Size = int(n)
	case ParamSampling:
		f, ok := floatValue(value)
		if !ok {
			return config, errors.Newf("sampling: unexpected value %T", value)
		}
		if !(f > 0 && f <= 1) {
			return config, errors.Newf("sampling: %v not in (0, 1]", f)
		}
		config.Sampling = f
	case ParamMode:
		s, ok := value.(string)
		if !ok {
			return config, errors.Newf("mode: unexpected value %T", value)
		}
		config.Mode = Mode(s)
	case ParamSeed:
		n, ok := intValue(value)
		if !ok {
			return config, errors.Newf("seed: unexpected value %T", value)
		}
		config.Seed = uint64(n)
	default:
		return config, errors.AssertionFailedf("unknown parameter %d", param)
	}
	return config, nil
}
