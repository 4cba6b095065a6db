package spectral

import (
	"fmt"
	"math/cmplx"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Window is the windowing function applied to each analysis frame.
type Window interface {
	ApplyInPlace(signal []float64) error
	GetSize() int
}

// STFTConfig describes the framing of a short-time transform.
type STFTConfig struct {
	WindowSize int  // FFT size and frame length in samples
	HopSize    int  // Samples between frame starts
	Center     bool // Zero-pad WindowSize/2 on both sides so frame t is centered on sample t*HopSize
}

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	fft    *FFT
	config STFTConfig
	window Window
}

// STFTResult holds the magnitude spectrogram of one signal.
type STFTResult struct {
	Magnitude      [][]float64 `json:"magnitude"`       // Time x Frequency magnitude matrix
	TimeFrames     int         `json:"time_frames"`     // Number of time frames
	FreqBins       int         `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int         `json:"sample_rate"`     // Sample rate
	WindowSize     int         `json:"window_size"`     // FFT window size
	HopSize        int         `json:"hop_size"`        // Hop size between frames
	FreqResolution float64     `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64     `json:"time_resolution"` // Time resolution (seconds/frame)
}

// NewSTFT creates a new STFT calculator. window may be nil for a
// rectangular window; otherwise its size must equal config.WindowSize.
func NewSTFT(config STFTConfig, window Window) (*STFT, error) {
	if config.WindowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}
	if config.HopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}
	if window != nil && window.GetSize() != config.WindowSize {
		return nil, fmt.Errorf("window length (%d) doesn't match window size (%d)", window.GetSize(), config.WindowSize)
	}

	return &STFT{
		fft:    NewFFT(),
		config: config,
		window: window,
	}, nil
}

// Config returns the framing configuration.
func (s *STFT) Config() STFTConfig {
	return s.config
}

// Compute computes the magnitude spectrogram. Frames are transformed in
// parallel; each worker writes only its own rows so the result does not
// depend on scheduling.
func (s *STFT) Compute(signal []float64, sampleRate int) (*STFTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	windowSize := s.config.WindowSize
	hopSize := s.config.HopSize

	padded := signal
	if s.config.Center {
		pad := windowSize / 2
		padded = make([]float64, len(signal)+2*pad)
		copy(padded[pad:], signal)
	}

	if len(padded) < windowSize {
		return nil, fmt.Errorf("signal too short for given window size and hop size")
	}
	numFrames := (len(padded)-windowSize)/hopSize + 1

	// Calculate frequency bins (positive frequencies only)
	freqBins := windowSize/2 + 1

	magnitude := make([][]float64, numFrames)
	for i := range numFrames {
		magnitude[i] = make([]float64, freqBins)
	}

	numWorkers := s.getOptimalWorkerCount(numFrames)
	jobs := make(chan int, numFrames)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse frame buffer for this worker
			frameBuffer := make([]float64, windowSize)

			for frameIdx := range jobs {
				start := frameIdx * hopSize
				copy(frameBuffer, padded[start:start+windowSize])

				if s.window != nil {
					// Size was checked at construction.
					_ = s.window.ApplyInPlace(frameBuffer)
				}

				fftResult := s.fft.Compute(frameBuffer)
				for i := range freqBins {
					magnitude[frameIdx][i] = cmplx.Abs(fftResult[i])
				}
			}
		}()
	}

	for frameIdx := range numFrames {
		jobs <- frameIdx
	}
	close(jobs)
	wg.Wait()

	return &STFTResult{
		Magnitude:      magnitude,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sampleRate),
	}, nil
}

// MeanMagnitude averages the magnitude spectrogram over time, giving one
// spectral profile of FreqBins values.
func (r *STFTResult) MeanMagnitude() []float64 {
	profile := make([]float64, r.FreqBins)
	if r.TimeFrames == 0 {
		return profile
	}

	for _, frame := range r.Magnitude {
		floats.Add(profile, frame)
	}
	floats.Scale(1/float64(r.TimeFrames), profile)
	return profile
}

// getOptimalWorkerCount determines the number of workers based on workload
func (s *STFT) getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
