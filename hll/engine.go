package hll

import (
	"github.com/cockroachdb/errors"
	"sketchagg/core"
)

const (
	MinLgK     = 4
	MaxLgK     = 18
	DefaultLgK = 12

	ModeSparse core.Mode = "sparse"
	ModeDense  core.Mode = "dense"
)

// Engine adapts Sketch to the evaluator. Size is lgK and Mode chooses the
// starting representation. Sampling and seed are not used.
type Engine struct{}

var _ core.Engine[*Sketch] = Engine{}

func (Engine) Defaults() core.Config {
	return core.Config{Size: DefaultLgK, Sampling: 1, Mode: ModeSparse, Seed: core.DefaultSeed}
}

func (Engine) Validate(config core.Config) error {
	if config.Size < MinLgK || config.Size > MaxLgK {
		return errors.Newf("lgK %d out of range [%d, %d]", config.Size, MinLgK, MaxLgK)
	}
	if config.Mode != ModeSparse && config.Mode != ModeDense {
		return errors.Newf("unknown mode %q", config.Mode)
	}
	return nil
}

func (Engine) Build(config core.Config) (*Sketch, error) {
	return NewSketch(config.Size, config.Mode == ModeSparse)
}

func (Engine) Update(sketch *Sketch, key []byte, _ []float64) (*Sketch, error) {
	sketch.Insert(key)
	return sketch, nil
}

func (Engine) Merge(dst, src *Sketch) (*Sketch, error) {
	if err := dst.Merge(src); err != nil {
		return nil, err
	}
	return dst, nil
}

func (Engine) Serialize(sketch *Sketch) ([]byte, error) {
	return sketch.MarshalBinary()
}

// Deserialize trusts the precision stored in buf over config. Merging
// sketches of different precision fails later in Merge.
func (Engine) Deserialize(buf []byte, _ core.Config) (*Sketch, error) {
	return UnmarshalSketch(buf)
}

func (Engine) Estimate(sketch *Sketch) float64 {
	return float64(sketch.Estimate())
}

// RetainedCount is the register budget, 2^lgK.
func (Engine) RetainedCount(sketch *Sketch) int {
	return 1 << uint(sketch.lgK)
}
