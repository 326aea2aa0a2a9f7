package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		p        float64
		expected float64
	}{
		{name: "Single value", values: []float64{7}, p: 0.99, expected: 7},
		{name: "Minimum", values: []float64{3, 1, 2}, p: 0, expected: 1},
		{name: "Maximum", values: []float64{3, 1, 2}, p: 1, expected: 3},
		{name: "Interpolated low", values: []float64{10, 20, 30, 40, 50}, p: 0.01, expected: 10.4},
		{name: "Interpolated high", values: []float64{10, 20, 30, 40, 50}, p: 0.99, expected: 49.6},
		{name: "Unsorted input", values: []float64{50, 10, 40, 30, 20}, p: 0.25, expected: 20},
		{name: "Two values", values: []float64{0, 100}, p: 0.01, expected: 1},
		{name: "Ties", values: []float64{5, 5, 5, 5}, p: 0.99, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Quantile(tt.values, tt.p), 1e-9)
		})
	}
}

func TestQuantileEmpty(t *testing.T) {
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestQuantileDoesNotModifyInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Quantile(values, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
}
