// Package stats provides NaN-skipping descriptive statistics over time
// series. Missing samples in motion-capture data are NaN; every function
// here ignores them.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// dropNaN returns the finite values of a series.
func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Min returns the smallest non-NaN value, or NaN if there is none.
func Min(values []float64) float64 {
	v := dropNaN(values)
	if len(v) == 0 {
		return math.NaN()
	}
	return floats.Min(v)
}

// Max returns the largest non-NaN value, or NaN if there is none.
func Max(values []float64) float64 {
	v := dropNaN(values)
	if len(v) == 0 {
		return math.NaN()
	}
	return floats.Max(v)
}

// Mean returns the arithmetic mean of the non-NaN values.
func Mean(values []float64) float64 {
	v := dropNaN(values)
	if len(v) == 0 {
		return math.NaN()
	}
	return floats.Sum(v) / float64(len(v))
}

// Median returns the median of the non-NaN values, averaging the two middle
// values for even counts.
func Median(values []float64) float64 {
	v := dropNaN(values)
	if len(v) == 0 {
		return math.NaN()
	}
	sort.Float64s(v)
	mid := len(v) / 2
	if len(v)%2 == 0 {
		return (v[mid-1] + v[mid]) / 2
	}
	return v[mid]
}

// Std returns the population standard deviation of the non-NaN values.
func Std(values []float64) float64 {
	v := dropNaN(values)
	if len(v) == 0 {
		return math.NaN()
	}
	if len(v) == 1 {
		return 0
	}
	return stat.PopStdDev(v, nil)
}
