package windowing

import (
	"fmt"
	"math"
)

// Hann represents a periodic Hann window function.
//
// The periodic form divides by N rather than N-1, which makes the window
// tile exactly under 75% overlap and keeps a bin-centered sinusoid confined
// to its own bin and the two neighbors.
type Hann struct {
	size         int
	coefficients []float64
}

// NewPeriodicHann creates the periodic Hann window used for STFT frames.
func NewPeriodicHann(size int) *Hann {
	h := &Hann{size: max(0, size)}
	h.generate()
	return h
}

func (h *Hann) generate() {
	h.coefficients = make([]float64, h.size)
	for i := range h.size {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/float64(h.size)))
	}
}

// ApplyInPlace applies the window to a signal in-place
func (h *Hann) ApplyInPlace(signal []float64) error {
	if len(signal) != h.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	for i, c := range h.coefficients {
		signal[i] *= c
	}
	return nil
}

// GetSize returns the window size
func (h *Hann) GetSize() int {
	return h.size
}
