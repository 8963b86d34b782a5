package tuple

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"sketchagg/core"
	"sketchagg/stats"
)

// MaxTheta is theta for a sketch that has not started sampling.
const MaxTheta = uint64(math.MaxInt64)

const (
	ModeSum core.Mode = "Sum"
	ModeMin core.Mode = "Min"
	ModeMax core.Mode = "Max"
)

// Sketch retains the keys whose 63-bit hash is below theta, each with
// numValues doubles combined by mode.
type Sketch struct {
	nominal   int
	numValues int
	mode      core.Mode
	seed      uint64
	theta     uint64
	entries   map[uint64][]float64
}

func NewSketch(nominal, numValues int, sampling float64, mode core.Mode, seed uint64) *Sketch {
	theta := MaxTheta
	if sampling < 1 {
		// theta stays positive for any sampling in (0, 1)
		theta = max(1, uint64(sampling*float64(MaxTheta)))
	}
	return &Sketch{
		nominal:   nominal,
		numValues: numValues,
		mode:      mode,
		seed:      seed,
		theta:     theta,
		entries:   make(map[uint64][]float64),
	}
}

func hashKey(seed uint64, key []byte) uint64 {
	digest := xxhash.New()
	var prefix [8]byte
	binary.LittleEndian.PutUint64(prefix[:], seed)
	_, _ = digest.Write(prefix[:])
	_, _ = digest.Write(key)
	return digest.Sum64() >> 1
}

// Update adds values for key. values must hold numValues doubles.
func (sketch *Sketch) Update(key []byte, values []float64) error {
	if len(values) != sketch.numValues {
		return errors.Newf("expected %d values, got %d", sketch.numValues, len(values))
	}
	hash := hashKey(sketch.seed, key)
	sketch.insert(hash, values)
	return nil
}

func (sketch *Sketch) insert(hash uint64, values []float64) {
	if hash == 0 || hash >= sketch.theta {
		return
	}
	if current, ok := sketch.entries[hash]; ok {
		combine(sketch.mode, current, values)
		return
	}
	sketch.entries[hash] = append([]float64(nil), values...)
	if len(sketch.entries) > 2*sketch.nominal {
		sketch.rebuild()
	}
}

func combine(mode core.Mode, dst, src []float64) {
	for i := range dst {
		switch mode {
		case ModeMin:
			dst[i] = math.Min(dst[i], src[i])
		case ModeMax:
			dst[i] = math.Max(dst[i], src[i])
		default:
			dst[i] += src[i]
		}
	}
}

// compacted returns theta and the sorted hashes left after trimming to the
// nominal size. The sketch itself is not modified.
func (sketch *Sketch) compacted() (uint64, []uint64) {
	hashes := make([]uint64, 0, len(sketch.entries))
	for hash := range sketch.entries {
		hashes = append(hashes, hash)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	if len(hashes) <= sketch.nominal {
		return sketch.theta, hashes
	}
	return hashes[sketch.nominal], hashes[:sketch.nominal]
}

func (sketch *Sketch) rebuild() {
	theta, _ := sketch.compacted()
	if theta == sketch.theta {
		return
	}
	for hash := range sketch.entries {
		if hash >= theta {
			delete(sketch.entries, hash)
		}
	}
	sketch.theta = theta
}

// Union folds other into sketch. Theta becomes the smaller of the two and
// entries for the same key combine by the receiver's mode.
func (sketch *Sketch) Union(other *Sketch) error {
	if sketch.numValues != other.numValues {
		return errors.Newf("cannot union %d values into %d", other.numValues, sketch.numValues)
	}
	if sketch.seed != other.seed {
		return errors.New("cannot union sketches built with different seeds")
	}
	otherTheta, otherHashes := other.compacted()
	if otherTheta < sketch.theta {
		sketch.theta = otherTheta
		for hash := range sketch.entries {
			if hash >= otherTheta {
				delete(sketch.entries, hash)
			}
		}
	}
	for _, hash := range otherHashes {
		sketch.insert(hash, other.entries[hash])
	}
	return nil
}

// Intersect keeps only the keys sketch shares with other. Theta becomes the
// smaller of the two and shared values combine by the receiver's mode.
func (sketch *Sketch) Intersect(other *Sketch) error {
	if sketch.numValues != other.numValues {
		return errors.Newf("cannot intersect %d values with %d", other.numValues, sketch.numValues)
	}
	if sketch.seed != other.seed {
		return errors.New("cannot intersect sketches built with different seeds")
	}
	theta, hashes := sketch.compacted()
	if otherTheta, _ := other.compacted(); otherTheta < theta {
		theta = otherTheta
	}
	entries := make(map[uint64][]float64)
	for _, hash := range hashes {
		if hash >= theta {
			break
		}
		otherValues, ok := other.entries[hash]
		if !ok {
			continue
		}
		values := sketch.entries[hash]
		combine(sketch.mode, values, otherValues)
		entries[hash] = values
	}
	sketch.theta = theta
	sketch.entries = entries
	return nil
}

// Estimate is the number of distinct keys seen, scaled by theta once the
// sketch is sampling.
func (sketch *Sketch) Estimate() float64 {
	theta, hashes := sketch.compacted()
	if theta == MaxTheta {
		return float64(len(hashes))
	}
	return float64(len(hashes)) / (float64(theta) / float64(MaxTheta))
}

// Retained is the number of entries after trimming to the nominal size.
func (sketch *Sketch) Retained() int {
	if len(sketch.entries) > sketch.nominal {
		return sketch.nominal
	}
	return len(sketch.entries)
}

// Bounds is an approximate confidence interval around Estimate.
func (sketch *Sketch) Bounds(confidenceLevel float64) stats.Bounds {
	theta, hashes := sketch.compacted()
	return stats.SampledCountBounds(len(hashes), float64(theta)/float64(MaxTheta), confidenceLevel)
}

// Theta is the sampling fraction in (0, 1].
func (sketch *Sketch) Theta() float64 {
	theta, _ := sketch.compacted()
	return float64(theta) / float64(MaxTheta)
}

func (sketch *Sketch) IsEstimationMode() bool {
	theta, _ := sketch.compacted()
	return theta < MaxTheta
}

func (sketch *Sketch) NumValues() int {
	return sketch.numValues
}

// Each visits the retained entries in hash order.
func (sketch *Sketch) Each(fn func(hash uint64, values []float64)) {
	_, hashes := sketch.compacted()
	for _, hash := range hashes {
		fn(hash, sketch.entries[hash])
	}
}

// Column returns the values of one column in hash order.
func (sketch *Sketch) Column(column int) []float64 {
	var out []float64
	sketch.Each(func(_ uint64, values []float64) {
		out = append(out, values[column])
	})
	return out
}
