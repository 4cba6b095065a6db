package common

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Norm(data, 2) / math.Sqrt(float64(len(data)))
}

// TopKIndices returns the indices of the k largest values in data, largest
// first. Equal values are ordered by ascending index so the selection is
// deterministic. If k exceeds len(data) every index is returned.
func TopKIndices(data []float64, k int) []int {
	if k <= 0 || len(data) == 0 {
		return []int{}
	}
	k = min(k, len(data))

	indices := make([]int, len(data))
	for i := range indices {
		indices[i] = i
	}

	// gonum's floats.Argsort is not stable, so ties would not be reproducible.
	slices.SortStableFunc(indices, func(a, b int) int {
		switch {
		case data[a] > data[b]:
			return -1
		case data[a] < data[b]:
			return 1
		default:
			return 0
		}
	})

	return indices[:k]
}

// Clamp constrains value to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}
