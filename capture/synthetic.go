package capture

import (
	"context"
	"fmt"
	"slices"

	"github.com/RyanBlaney/sonido-vowels/algorithms/filters"
	"github.com/RyanBlaney/sonido-vowels/algorithms/speech"
	"github.com/RyanBlaney/sonido-vowels/algorithms/synth"
	"github.com/RyanBlaney/sonido-vowels/logging"
	"github.com/RyanBlaney/sonido-vowels/stream"
	"github.com/RyanBlaney/sonido-vowels/vowel"
)

// upperFormant is the third tone added to every synthetic vowel so each
// block has three distinct spectral peaks.
const upperFormant = 3500.0

// SyntheticOptions configure the synthetic vowel generator.
type SyntheticOptions struct {
	Options
	Table      vowel.Table
	WindowSize int  // analysis window the tones are snapped to
	HoldBlocks int  // blocks per vowel before moving to the next
	Realtime   bool // release one block per block interval
	Cycles     int  // passes over the table; 0 repeats until cancelled
}

// Synthetic cycles through the vowels of a table, emitting three-tone blocks
// whose two lowest tones sit inside each vowel's range. Tones are snapped to
// analysis bin centers so the estimator recovers them exactly.
type Synthetic struct {
	opts   SyntheticOptions
	voices []voice
	logger logging.Logger
}

type voice struct {
	label vowel.Label
	block stream.Block
}

// NewSynthetic creates a synthetic source. Labels with no reachable range in
// the table, or whose snapped tones would classify as another label, are
// skipped.
func NewSynthetic(opts SyntheticOptions) (*Synthetic, error) {
	if opts.SampleRate <= 0 || opts.BlockSize <= 0 {
		return nil, fmt.Errorf("capture: invalid synthetic options %+v", opts.Options)
	}
	if opts.HoldBlocks <= 0 {
		opts.HoldBlocks = 1
	}
	if opts.Table == nil {
		opts.Table = vowel.DefaultTable()
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = speech.DefaultWindowSize
	}

	upper := synth.SnapToBin(upperFormant, opts.WindowSize, opts.SampleRate)
	classifier := vowel.NewClassifier(opts.Table)

	var voices []voice
	for _, rule := range opts.Table {
		f1, f2, ok := opts.Table.Exemplar(rule.Label)
		if !ok {
			continue
		}
		freqs := []float64{
			synth.SnapToBin(f1, opts.WindowSize, opts.SampleRate),
			synth.SnapToBin(f2, opts.WindowSize, opts.SampleRate),
			upper,
		}
		// Snapping can move a tone out of a range narrower than one bin.
		detected := slices.Sorted(slices.Values(freqs))
		if classifier.Classify(detected) != rule.Label {
			continue
		}
		voices = append(voices, voice{
			label: rule.Label,
			block: synth.Tones(freqs, opts.SampleRate, opts.BlockSize, filters.DefaultPreEmphasis),
		})
	}
	if len(voices) == 0 {
		return nil, fmt.Errorf("capture: no vowel in the table can be synthesized")
	}

	return &Synthetic{
		opts:   opts,
		voices: voices,
		logger: logging.WithFields(logging.Fields{"component": "synthetic_source"}),
	}, nil
}

// Name implements Source.
func (s *Synthetic) Name() string { return "synthetic" }

// Sequence returns the labels in emission order for one cycle.
func (s *Synthetic) Sequence() []vowel.Label {
	labels := make([]vowel.Label, len(s.voices))
	for i, v := range s.voices {
		labels[i] = v.label
	}
	return labels
}

// Run implements Source.
func (s *Synthetic) Run(ctx context.Context, sink Sink) error {
	p := newPacer(s.opts.Realtime, s.opts.BlockDuration())
	defer p.stop()

	s.logger.Info("generating synthetic vowels", logging.Fields{"sequence": s.Sequence()})

	for cycle := 0; s.opts.Cycles == 0 || cycle < s.opts.Cycles; cycle++ {
		for _, v := range s.voices {
			for range s.opts.HoldBlocks {
				if !p.wait(ctx) {
					return nil
				}
				block := make(stream.Block, len(v.block))
				copy(block, v.block)
				if err := sink.Push(block); err != nil {
					return nil
				}
			}
		}
	}
	return nil
}
