// Package capture produces fixed-size audio blocks from a microphone, a WAV
// file or a synthetic vowel generator.
package capture

import (
	"context"
	"time"

	"github.com/RyanBlaney/sonido-vowels/stream"
)

// Sink accepts captured blocks. *stream.BlockQueue satisfies it.
type Sink interface {
	Push(block stream.Block) error
}

// Source delivers blocks to a sink until ctx is cancelled or the input is
// exhausted. A nil return means the source finished normally.
type Source interface {
	Run(ctx context.Context, sink Sink) error
	Name() string
}

// Options are shared by every source.
type Options struct {
	SampleRate int
	BlockSize  int
}

// BlockDuration returns the span of one block.
func (o Options) BlockDuration() time.Duration {
	if o.SampleRate <= 0 {
		return 0
	}
	return time.Duration(o.BlockSize) * time.Second / time.Duration(o.SampleRate)
}

// pacer releases one tick per block interval, or immediately when disabled.
type pacer struct {
	ticker *time.Ticker
}

func newPacer(realtime bool, interval time.Duration) *pacer {
	if !realtime || interval <= 0 {
		return &pacer{}
	}
	return &pacer{ticker: time.NewTicker(interval)}
}

// wait blocks until the next tick. It returns false once ctx is done.
func (p *pacer) wait(ctx context.Context) bool {
	if p.ticker == nil {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-p.ticker.C:
		return true
	}
}

func (p *pacer) stop() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
}
