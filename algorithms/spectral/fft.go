package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality backed by mjibson/go-dsp.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the full complex spectrum of a real signal.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// go-dsp handles all sizes, including non-power-of-2
	return fft.FFTReal(x)
}

// BinFrequency maps FFT bin k of a size-point transform to its center
// frequency in Hz.
func BinFrequency(k, size, sampleRate int) float64 {
	if size <= 0 {
		return 0
	}
	return float64(k) * float64(sampleRate) / float64(size)
}
