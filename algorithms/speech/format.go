package speech

import (
	"fmt"
	"slices"

	"github.com/RyanBlaney/sonido-vowels/algorithms/common"
	"github.com/RyanBlaney/sonido-vowels/algorithms/filters"
	"github.com/RyanBlaney/sonido-vowels/algorithms/spectral"
	"github.com/RyanBlaney/sonido-vowels/algorithms/windowing"
)

// Default analysis parameters for 16 kHz speech.
const (
	DefaultWindowSize  = 512
	DefaultHopSize     = DefaultWindowSize / 4
	DefaultNumFormants = 3
	// MaxNumFormants bounds the length of a FormantSet.
	MaxNumFormants = 3
)

// FormantSet holds estimated formant frequencies in Hz, ascending.
type FormantSet []float64

// F1F2 returns the two lowest frequencies. ok is false when fewer than two
// are present.
func (fs FormantSet) F1F2() (f1, f2 float64, ok bool) {
	if len(fs) < 2 {
		return 0, 0, false
	}
	return fs[0], fs[1], true
}

// FormantEstimatorConfig configures a FormantEstimator. Zero values select
// the defaults.
type FormantEstimatorConfig struct {
	WindowSize  int
	HopSize     int
	NumFormants int
	PreEmphasis float64
	// NoCenter disables centered framing. Centered framing zero-pads half a
	// window on both ends of the block.
	NoCenter bool
}

// FormantEstimator picks the dominant spectral peaks of a block as a cheap
// proxy for vocal tract resonances. F1 and F2 primarily determine vowel
// identity.
//
// Each block is pre-emphasized, framed with a periodic Hann window, and its
// magnitude spectrum averaged over frames. The NumFormants strongest bins are
// mapped to Hz and returned in ascending frequency order. There is no
// voicing decision: silence still yields NumFormants values.
//
// A FormantEstimator is safe for concurrent use.
type FormantEstimator struct {
	numFormants int
	preEmphasis *filters.PreEmphasis
	stft        *spectral.STFT
}

// NewFormantEstimator creates a formant estimator.
func NewFormantEstimator(cfg FormantEstimatorConfig) (*FormantEstimator, error) {
	if cfg.WindowSize == 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.HopSize == 0 {
		cfg.HopSize = cfg.WindowSize / 4
	}
	if cfg.NumFormants == 0 {
		cfg.NumFormants = DefaultNumFormants
	}
	if cfg.PreEmphasis == 0 {
		cfg.PreEmphasis = filters.DefaultPreEmphasis
	}
	if cfg.NumFormants < 0 || cfg.NumFormants > MaxNumFormants {
		return nil, fmt.Errorf("number of formants must be in 1..%d, got %d", MaxNumFormants, cfg.NumFormants)
	}

	pe := filters.NewPreEmphasisDefault()
	if err := pe.SetCoefficient(cfg.PreEmphasis); err != nil {
		return nil, fmt.Errorf("pre-emphasis: %w", err)
	}

	stft, err := spectral.NewSTFT(spectral.STFTConfig{
		WindowSize: cfg.WindowSize,
		HopSize:    cfg.HopSize,
		Center:     !cfg.NoCenter,
	}, windowing.NewPeriodicHann(cfg.WindowSize))
	if err != nil {
		return nil, fmt.Errorf("stft: %w", err)
	}

	return &FormantEstimator{
		numFormants: cfg.NumFormants,
		preEmphasis: pe,
		stft:        stft,
	}, nil
}

// Estimate returns the formant set of one block. Blocks shorter than one
// window are analysed as-is when centered framing is on; otherwise, and for
// empty input, an empty set is returned.
func (f *FormantEstimator) Estimate(block []float64, sampleRate int) FormantSet {
	profile := f.SpectralProfile(block, sampleRate)
	if len(profile) == 0 {
		return FormantSet{}
	}

	windowSize := f.stft.Config().WindowSize
	peaks := common.TopKIndices(profile, f.numFormants)

	formants := make(FormantSet, len(peaks))
	for i, bin := range peaks {
		formants[i] = spectral.BinFrequency(bin, windowSize, sampleRate)
	}
	slices.Sort(formants)
	return formants
}

// SpectralProfile returns the pre-emphasized, frame-averaged magnitude
// spectrum of block (WindowSize/2+1 bins), or nil if no frame fits.
func (f *FormantEstimator) SpectralProfile(block []float64, sampleRate int) []float64 {
	if len(block) == 0 {
		return nil
	}

	emphasized := f.preEmphasis.ProcessBlock(block)
	result, err := f.stft.Compute(emphasized, sampleRate)
	if err != nil {
		return nil
	}
	return result.MeanMagnitude()
}
