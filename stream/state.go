package stream

import (
	"sync/atomic"
	"time"

	"github.com/RyanBlaney/sonido-vowels/vowel"
)

// CurrentVowel is the most recent successful classification, written by the
// processor and read by the display. It starts as vowel.None and is never
// reset to None by a miss.
type CurrentVowel struct {
	label   atomic.Uint32
	updates atomic.Uint64
	at      atomic.Int64 // unix nanos of last Store
}

// NewCurrentVowel creates a state holding vowel.None.
func NewCurrentVowel() *CurrentVowel {
	return &CurrentVowel{}
}

// Load returns the current label.
func (c *CurrentVowel) Load() vowel.Label {
	return vowel.Label(c.label.Load())
}

// Store publishes label and returns the new update count.
func (c *CurrentVowel) Store(label vowel.Label) uint64 {
	c.at.Store(time.Now().UnixNano())
	c.label.Store(uint32(label))
	return c.updates.Add(1)
}

// Updates returns how many times Store has been called.
func (c *CurrentVowel) Updates() uint64 {
	return c.updates.Load()
}

// UpdatedAt returns the time of the last Store, or the zero time if none.
func (c *CurrentVowel) UpdatedAt() time.Time {
	ns := c.at.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
