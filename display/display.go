// Package display renders the current vowel, either as mouth drawings in
// the terminal or as log lines when running headless.
package display

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/RyanBlaney/sonido-vowels/stream"
	"github.com/RyanBlaney/sonido-vowels/vowel"
)

// Display refreshes a view of the current vowel until ctx is cancelled or
// the user asks to quit. Both return nil.
type Display interface {
	Run(ctx context.Context) error
}

// VowelSource is read on every frame. UpdatedAt is the zero time until the
// first detection.
type VowelSource interface {
	Load() vowel.Label
	UpdatedAt() time.Time
}

// FrameObserver is told about every refresh.
type FrameObserver interface {
	ObserveFrame()
}

// DetectionTracker keeps the latest detection for display. Register
// Observe with stream.Processor.OnDetection.
type DetectionTracker struct {
	last atomic.Pointer[stream.Detection]
}

// Observe stores d as the latest detection.
func (t *DetectionTracker) Observe(d stream.Detection) {
	t.last.Store(&d)
}

// Last returns the latest detection, if any.
func (t *DetectionTracker) Last() (stream.Detection, bool) {
	d := t.last.Load()
	if d == nil {
		return stream.Detection{}, false
	}
	return *d, true
}

type nopFrameObserver struct{}

func (nopFrameObserver) ObserveFrame() {}
