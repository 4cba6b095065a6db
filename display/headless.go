package display

import (
	"context"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-vowels/logging"
	"github.com/RyanBlaney/sonido-vowels/vowel"
)

// HeadlessOptions configure the headless renderer.
type HeadlessOptions struct {
	State    VowelSource
	Interval time.Duration
	Frames   FrameObserver
	Logger   logging.Logger
	OnChange func(vowel.Label) // optional, called on the display goroutine
}

// Headless polls the current vowel at the frame rate and logs every change.
// It is used when no terminal is available.
type Headless struct {
	opts HeadlessOptions
}

// NewHeadless creates a headless renderer.
func NewHeadless(opts HeadlessOptions) (*Headless, error) {
	if opts.State == nil {
		return nil, fmt.Errorf("display: vowel state is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second / 30
	}
	if opts.Frames == nil {
		opts.Frames = nopFrameObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.WithFields(logging.Fields{"component": "headless_display"})
	}
	return &Headless{opts: opts}, nil
}

// Run implements Display.
func (h *Headless) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.opts.Interval)
	defer ticker.Stop()

	shown := vowel.None
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		h.opts.Frames.ObserveFrame()
		current := h.opts.State.Load()
		if current == shown {
			continue
		}
		h.opts.Logger.Info("vowel changed", logging.Fields{
			"from": shown.String(),
			"to":   current.String(),
		})
		shown = current
		if h.opts.OnChange != nil {
			h.opts.OnChange(current)
		}
	}
}
