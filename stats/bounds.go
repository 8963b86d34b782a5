package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

type Bounds struct {
	Lower float64
	Upper float64
}

// SampledCountBounds approximates a confidence interval for a distinct
// count estimated from retained samples kept with probability theta.
func SampledCountBounds(retained int, theta, confidenceLevel float64) Bounds {
	n := float64(retained)
	if theta >= 1 {
		return Bounds{Lower: n, Upper: n}
	}
	estimate := n / theta
	z := distuv.UnitNormal.Quantile((1 + confidenceLevel) / 2)
	if math.IsInf(z, 0) {
		return Bounds{Lower: n, Upper: math.Inf(1)}
	}
	sd := math.Sqrt(n*(1-theta)) / theta
	return Bounds{
		Lower: math.Max(estimate-z*sd, n),
		Upper: estimate + z*sd,
	}
}
