package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// WelchTTest returns the two-sided p-value of Welch's t-test for the means
// of a and b. Both need at least two observations, otherwise NaN.
func WelchTTest(a, b *Welford) float64 {
	if a.Count() < 2 || b.Count() < 2 {
		return math.NaN()
	}
	na, nb := float64(a.Count()), float64(b.Count())
	va := a.GetSampleVariance() / na
	vb := b.GetSampleVariance() / nb
	se := va + vb
	diff := a.GetMean() - b.GetMean()
	if se == 0 {
		if diff == 0 {
			return 1
		}
		return 0
	}

	t := diff / math.Sqrt(se)
	df := se * se / (va*va/(na-1) + vb*vb/(nb-1))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.CDF(-math.Abs(t))
}
