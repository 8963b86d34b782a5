package frequencies

import (
	"github.com/cockroachdb/errors"
	"sketchagg/core"
)

const (
	MinMapSize     = 8
	MaxMapSize     = 1 << 20
	DefaultMapSize = 64
)

// Engine adapts Sketch to the evaluator. Size is the maximum map size.
type Engine struct{}

var _ core.Engine[*Sketch] = Engine{}

func (Engine) Defaults() core.Config {
	return core.Config{Size: DefaultMapSize, Sampling: 1, Seed: core.DefaultSeed}
}

func (Engine) Validate(config core.Config) error {
	n := config.Size
	if n < MinMapSize || n > MaxMapSize || n&(n-1) != 0 {
		return errors.Newf("max map size %d must be a power of 2 in [%d, %d]", n, MinMapSize, MaxMapSize)
	}
	return nil
}

func (Engine) Build(config core.Config) (*Sketch, error) {
	return NewSketch(config.Size), nil
}

func (Engine) Update(sketch *Sketch, key []byte, _ []float64) (*Sketch, error) {
	sketch.Update(string(key), 1)
	return sketch, nil
}

func (Engine) Merge(dst, src *Sketch) (*Sketch, error) {
	dst.Merge(src)
	return dst, nil
}

func (Engine) Serialize(sketch *Sketch) ([]byte, error) {
	return sketch.MarshalMsg(nil)
}

func (Engine) Deserialize(buf []byte, config core.Config) (*Sketch, error) {
	sketch := NewSketch(config.Size)
	rest, err := sketch.UnmarshalMsg(buf)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.Newf("%d trailing bytes after sketch", len(rest))
	}
	return sketch, nil
}

// Estimate is the total weight of the stream.
func (Engine) Estimate(sketch *Sketch) float64 {
	return float64(sketch.StreamLength())
}

func (Engine) RetainedCount(sketch *Sketch) int {
	return sketch.NumActiveItems()
}
