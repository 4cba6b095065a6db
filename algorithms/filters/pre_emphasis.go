package filters

import (
	"fmt"
	"math"
)

// DefaultPreEmphasis is the standard speech pre-emphasis coefficient.
const DefaultPreEmphasis = 0.97

// PreEmphasis implements a pre-emphasis filter for speech processing.
// Pre-emphasis compensates for the natural spectral roll-off of voiced speech,
// emphasizing higher frequencies so that upper formants are not buried under
// the low-frequency energy of the glottal source.
//
// The filter implements the transfer function:
// H(z) = 1 - α*z^-1
//
// With the difference equation:
// y[n] = x[n] - α*x[n-1]
//
// Where α is the pre-emphasis coefficient (typically 0.95-0.97 for speech).
//
// References:
//   - L.R. Rabiner, R.W. Schafer, "Digital Processing of Speech Signals",
//     Prentice-Hall, 1978, Chapter 4
type PreEmphasis struct {
	coefficient float64 // Pre-emphasis coefficient α
}

// NewPreEmphasis creates a pre-emphasis filter with specified coefficient.
//
// Parameters:
//   - coefficient: Pre-emphasis coefficient α (0.0 < α < 1.0)
//     Higher values = more emphasis of high frequencies
func NewPreEmphasis(coefficient float64) *PreEmphasis {
	return &PreEmphasis{coefficient: coefficient}
}

// NewPreEmphasisDefault creates a pre-emphasis filter with standard coefficient (0.97).
func NewPreEmphasisDefault() *PreEmphasis {
	return NewPreEmphasis(DefaultPreEmphasis)
}

// ProcessBlock filters an independent block. Blocks share no state. The sample preceding the block is linearly extrapolated as
// 2*x[0] - x[1], so a block that starts mid-waveform does not produce a
// spurious step at index 0. A single-sample block uses x[0] itself.
func (pe *PreEmphasis) ProcessBlock(input []float64) []float64 {
	output := make([]float64, len(input))
	if len(input) == 0 {
		return output
	}

	prev := input[0]
	if len(input) > 1 {
		prev = 2*input[0] - input[1]
	}

	for i, sample := range input {
		output[i] = sample - pe.coefficient*prev
		prev = sample
	}
	return output
}

// SetCoefficient updates the pre-emphasis coefficient.
func (pe *PreEmphasis) SetCoefficient(coefficient float64) error {
	if coefficient < 0.0 || coefficient >= 1.0 {
		return fmt.Errorf("coefficient must be in [0, 1), got %f", coefficient)
	}
	pe.coefficient = coefficient
	return nil
}

// GetFrequencyResponse computes the magnitude and phase response at given frequency.
// For pre-emphasis filter: H(e^jw) = 1 - α*e^-jw
func (pe *PreEmphasis) GetFrequencyResponse(frequency float64, sampleRate int) (magnitude, phase float64) {
	w := 2.0 * math.Pi * frequency / float64(sampleRate)

	// H(e^jw) = 1 - α*cos(w) + j*α*sin(w)
	re := 1.0 - pe.coefficient*math.Cos(w)
	im := pe.coefficient * math.Sin(w)

	magnitude = math.Sqrt(re*re + im*im)
	phase = math.Atan2(im, re)

	return magnitude, phase
}
