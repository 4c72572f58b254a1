// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends
package output

import "context"

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write outputs audio samples (blocks until written)
	Write(samples []int32) error

	// Drain blocks until everything written so far has been played
	Drain(ctx context.Context) error

	// Close releases output resources
	Close() error
}
