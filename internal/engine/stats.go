package engine

import (
	"math"
	"sort"
)

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range xs {
		s += v
	}
	return s / float64(len(xs))
}

// sampleStdDev uses the n-1 denominator. A single observation has no
// dispersion and yields 0.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	ss := 0.0
	for _, v := range xs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return 0.5 * (cp[mid-1] + cp[mid])
}

// decayWeight computes exp(-age/tau).
func decayWeight(age, tau float64) float64 {
	if tau <= 0 {
		return 0
	}
	return math.Exp(-age / tau)
}

// decayWeightedMean averages xs with exponential recency weights: the
// last element has age 0 and therefore the largest weight. tau <= 0
// degrades to the plain mean.
func decayWeightedMean(xs []float64, tau float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	if tau <= 0 {
		return mean(xs)
	}
	var num, den float64
	n := len(xs)
	for i, v := range xs {
		w := decayWeight(float64(n-1-i), tau)
		num += w * v
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// percentile extracts the q-quantile (0 < q <= 1) from an already
// sorted sample using the given rule. Nearest-rank takes the
// ceil(q*n)-th order statistic; linear interpolates between the two
// bracketing order statistics at h = (n-1)*q.
func percentile(sorted []float64, q float64, rule Interpolation) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	switch rule {
	case InterpLinear:
		h := float64(n-1) * q
		lo := int(math.Floor(h))
		hi := lo + 1
		if hi >= n {
			return sorted[n-1]
		}
		frac := h - float64(lo)
		return sorted[lo] + frac*(sorted[hi]-sorted[lo])
	default: // nearest-rank
		rank := int(math.Ceil(q * float64(n)))
		if rank < 1 {
			rank = 1
		}
		if rank > n {
			rank = n
		}
		return sorted[rank-1]
	}
}

// leastSquaresSlope fits y = a + b*x over x = 0..n-1 and returns b.
func leastSquaresSlope(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	den := float64(n)*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (float64(n)*sumXY - sumX*sumY) / den
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
