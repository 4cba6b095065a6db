package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-vowels/algorithms/common"
	"github.com/RyanBlaney/sonido-vowels/logging"
	"github.com/RyanBlaney/sonido-vowels/stream"
	"github.com/RyanBlaney/sonido-vowels/transcode"
)

// FileOptions configure a WAV replay source.
type FileOptions struct {
	Options
	Path     string
	Realtime bool // release one block per block interval
	Loop     bool // restart at end of file until cancelled

	MaxDuration   time.Duration // replay only this much audio; 0 plays it all
	NormalizePeak float64       // scale to this peak amplitude; 0 keeps levels
}

// File replays a WAV file as capture blocks. The file is decoded and
// resampled to the configured rate up front. The final partial block is
// zero-padded.
type File struct {
	opts    FileOptions
	decoder *transcode.Decoder
	logger  logging.Logger
}

// NewFile creates a file source.
func NewFile(opts FileOptions) (*File, error) {
	if opts.SampleRate <= 0 || opts.BlockSize <= 0 {
		return nil, fmt.Errorf("capture: invalid file options %+v", opts.Options)
	}
	if opts.Path == "" {
		return nil, fmt.Errorf("capture: file path is required")
	}
	return &File{
		opts:    opts,
		decoder: transcode.NewDecoder(&transcode.DecoderConfig{
			TargetSampleRate: opts.SampleRate,
			MaxDuration:      opts.MaxDuration,
			NormalizePeak:    opts.NormalizePeak,
		}),
		logger:  logging.WithFields(logging.Fields{"component": "file_source", "path": opts.Path}),
	}, nil
}

// Name implements Source.
func (f *File) Name() string { return "file" }

// Run implements Source.
func (f *File) Run(ctx context.Context, sink Sink) error {
	data, err := f.decoder.DecodeFile(f.opts.Path)
	if err != nil {
		return errors.Wrap(err, "capture: loading file failed")
	}

	blocks, err := Split(data.PCM, f.opts.BlockSize)
	if err != nil {
		return err
	}
	f.logger.Info("replaying file", logging.Fields{
		"duration": data.Duration.String(),
		"blocks":   len(blocks),
		"realtime": f.opts.Realtime,
		"loop":     f.opts.Loop,
	})
	if len(blocks) == 0 {
		return nil
	}

	p := newPacer(f.opts.Realtime, f.opts.BlockDuration())
	defer p.stop()

	for {
		for _, b := range blocks {
			if !p.wait(ctx) {
				return nil
			}
			// The queue owns pushed blocks; looping must not hand out the same slice twice.
			block := make(stream.Block, len(b))
			copy(block, b)
			if err := sink.Push(block); err != nil {
				return nil
			}
		}
		if !f.opts.Loop {
			f.logger.Debug("end of file")
			return nil
		}
	}
}

// Split cuts pcm into blocks of size samples, zero-padding the last one.
func Split(pcm []float64, size int) ([][]float64, error) {
	framer, err := common.NewBlockFramer(size)
	if err != nil {
		return nil, errors.Wrap(err, "capture: splitting samples failed")
	}
	blocks := framer.AddSamples(pcm)
	if last := framer.Flush(); last != nil {
		blocks = append(blocks, last)
	}
	return blocks, nil
}
