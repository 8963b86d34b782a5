package tuple

import (
	"github.com/cockroachdb/errors"
	"sketchagg/core"
	"sketchagg/stats"
)

type tTest struct{}

func (tTest) Observations(sketch *Sketch) int {
	return sketch.Retained()
}

// Compare runs a two-sided Welch t-test on every value column.
func (tTest) Compare(a, b *Sketch) ([]float64, error) {
	if a.numValues != b.numValues {
		return nil, errors.Newf("sketches hold %d and %d values per key", a.numValues, b.numValues)
	}
	pValues := make([]float64, a.numValues)
	for i := range pValues {
		first, second := stats.NewWelford(), stats.NewWelford()
		for _, v := range a.Column(i) {
			first.Update(v)
		}
		for _, v := range b.Column(i) {
			second.Update(v)
		}
		pValues[i] = stats.WelchTTest(first, second)
	}
	return pValues, nil
}

// NewTTest compares two array-of-doubles sketches with numValues columns.
func NewTTest(numValues int, opts ...core.Option) *core.Comparison[*Sketch] {
	return core.NewComparison[*Sketch]("tuple_ttest", Engine{NumValues: numValues}, tTest{}, opts...)
}
