// ABOUTME: Headless audio output
// ABOUTME: Discards samples while pacing writes against a clock
package output

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Headless is an Output without a device
type Headless struct {
	clock clockwork.Clock

	mu         sync.Mutex
	sampleRate int
	channels   int
	open       bool
	written    int64
}

// NewHeadless creates a headless output paced by clock. A nil clock
// disables pacing.
func NewHeadless(clock clockwork.Clock) *Headless {
	return &Headless{clock: clock}
}

// Open records the format
func (h *Headless) Open(sampleRate, channels int) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid format: %dHz %dch", sampleRate, channels)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.sampleRate = sampleRate
	h.channels = channels
	h.open = true
	return nil
}

// Write sleeps for as long as the samples would take to play
func (h *Headless) Write(samples []int32) error {
	h.mu.Lock()
	if !h.open {
		h.mu.Unlock()
		return fmt.Errorf("output not initialized")
	}
	d := time.Duration(len(samples)/h.channels) * time.Second / time.Duration(h.sampleRate)
	h.written += int64(len(samples))
	h.mu.Unlock()

	if h.clock != nil {
		h.clock.Sleep(d)
	}
	return nil
}

// Drain returns immediately; nothing is buffered
func (h *Headless) Drain(ctx context.Context) error {
	return ctx.Err()
}

// Close marks the output closed
func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.open = false
	return nil
}

// Written returns the number of samples written since creation
func (h *Headless) Written() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.written
}
