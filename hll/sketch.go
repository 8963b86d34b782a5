package hll

import (
	"github.com/axiomhq/hyperloglog"
	"github.com/cockroachdb/errors"
)

const precisionOffset = 1

// Sketch is a HyperLogLog sketch tagged with its precision.
type Sketch struct {
	hll *hyperloglog.Sketch
	lgK int
}

func NewSketch(lgK int, sparse bool) (*Sketch, error) {
	if lgK < MinLgK || lgK > MaxLgK {
		return nil, errors.Newf("lgK %d out of range [%d, %d]", lgK, MinLgK, MaxLgK)
	}
	inner, err := hyperloglog.NewSketch(uint8(lgK), sparse)
	if err != nil {
		return nil, errors.Wrapf(err, "building sketch with lgK %d", lgK)
	}
	return &Sketch{hll: inner, lgK: lgK}, nil
}

func (sketch *Sketch) Insert(key []byte) {
	sketch.hll.Insert(key)
}

func (sketch *Sketch) Merge(other *Sketch) error {
	if sketch.lgK != other.lgK {
		return errors.Newf("cannot merge lgK %d into lgK %d", other.lgK, sketch.lgK)
	}
	return sketch.hll.Merge(other.hll)
}

func (sketch *Sketch) Estimate() uint64 {
	return sketch.hll.Estimate()
}

func (sketch *Sketch) LgK() int {
	return sketch.lgK
}

func (sketch *Sketch) MarshalBinary() ([]byte, error) {
	return sketch.hll.MarshalBinary()
}

// UnmarshalSketch reads a serialized sketch. The precision is the one
// stored in the bytes.
func UnmarshalSketch(buf []byte) (*Sketch, error) {
	if len(buf) < 2 {
		return nil, errors.Newf("sketch of %d bytes is too short", len(buf))
	}
	inner := new(hyperloglog.Sketch)
	if err := inner.UnmarshalBinary(buf); err != nil {
		return nil, errors.Wrap(err, "unmarshaling sketch")
	}
	// byte 1 of the layout is the precision
	lgK := int(buf[precisionOffset])
	if lgK < MinLgK || lgK > MaxLgK {
		return nil, errors.Newf("stored lgK %d out of range [%d, %d]", lgK, MinLgK, MaxLgK)
	}
	return &Sketch{hll: inner, lgK: lgK}, nil
}
