// Package synth generates deterministic test signals whose spectral peaks
// sit at chosen frequencies.
package synth

import (
	"math"

	"github.com/RyanBlaney/sonido-vowels/algorithms/filters"
)

// Tones returns n samples of a sum of cosines at freqs. When preEmphasis is
// non-zero each tone is pre-scaled by the inverse of that filter's gain, so
// after pre-emphasis all tones have equal amplitude. The result is scaled so
// its peak absolute value does not exceed 0.9.
func Tones(freqs []float64, sampleRate, n int, preEmphasis float64) []float64 {
	out := make([]float64, n)
	if len(freqs) == 0 || n == 0 {
		return out
	}

	pe := filters.NewPreEmphasis(preEmphasis)
	amps := make([]float64, len(freqs))
	total := 0.0
	for i, f := range freqs {
		amps[i] = 1
		if preEmphasis != 0 {
			gain, _ := pe.GetFrequencyResponse(f, sampleRate)
			if gain > 0 {
				amps[i] = 1 / gain
			}
		}
		total += amps[i]
	}

	scale := 0.9 / total
	for i := range out {
		t := float64(i) / float64(sampleRate)
		for j, f := range freqs {
			out[i] += scale * amps[j] * math.Cos(2*math.Pi*f*t)
		}
	}
	return out
}

// SnapToBin rounds freq to the nearest center frequency of a size-point FFT.
func SnapToBin(freq float64, size, sampleRate int) float64 {
	resolution := float64(sampleRate) / float64(size)
	return math.Round(freq/resolution) * resolution
}
