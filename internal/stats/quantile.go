// Package stats holds the order-statistic helpers shared by the cleaner and the analyzer.
package stats

import (
	"math"
	"sort"
)

// Quantile returns the p-quantile of values using linear interpolation between
// order statistics: h = (n-1)p, q = x[floor(h)] + (h-floor(h))(x[floor(h)+1]-x[floor(h)]).
// It returns NaN for an empty input. values is not modified.
func Quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return QuantileSorted(sorted, p)
}

// QuantileSorted is Quantile for input already sorted ascending.
func QuantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo+1 >= n {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Median is the 0.5 quantile; for an even count it averages the two middle values.
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}
