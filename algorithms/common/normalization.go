package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// silenceFloorDB is reported by LevelDBFS for an all-zero signal.
const silenceFloorDB = -120.0

// Peak returns the largest absolute sample value.
func Peak(signal []float64) float64 {
	if len(signal) == 0 {
		return 0.0
	}
	return math.Max(math.Abs(floats.Max(signal)), math.Abs(floats.Min(signal)))
}

// PeakNormalize scales signal so its peak absolute value equals target.
// Silent input is returned unchanged as a copy.
func PeakNormalize(signal []float64, target float64) []float64 {
	normalized := make([]float64, len(signal))
	copy(normalized, signal)

	peak := Peak(signal)
	if peak < 1e-10 {
		return normalized
	}

	floats.Scale(target/peak, normalized)
	return normalized
}

// LevelDBFS converts a linear amplitude (RMS or peak, full scale 1.0) to
// decibels relative to full scale.
func LevelDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return silenceFloorDB
	}
	return math.Max(silenceFloorDB, 20*math.Log10(amplitude))
}
