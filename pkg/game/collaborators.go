// ABOUTME: Collaborator contracts consumed by the session
// ABOUTME: Fetching, parsing, audio, display, and container interfaces
package game

import (
	"context"
	"time"

	"github.com/Resonate-Protocol/singalong-go/pkg/song"
)

// Fetcher retrieves the bytes behind a song or media location
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// ParseFunc parses song text; base is the song location without its last
// path segment
type ParseFunc func(base, text string) (*song.Song, error)

// AudioEngine decodes audio into playable tracks and provides the playback
// clock
type AudioEngine interface {
	Clock

	// Decode turns encoded audio bytes into a playable track. name is the
	// audio location and selects the codec.
	Decode(ctx context.Context, name string, data []byte) (Track, error)
}

// Track is a decoded, playable audio buffer
type Track interface {
	// Start begins playback
	Start() error

	// Ended is closed when playback reaches the end of the track
	Ended() <-chan struct{}

	// Duration is the length of the decoded audio
	Duration() time.Duration

	// Close stops playback and releases the track
	Close() error
}

// Display prepares and renders the visual side of a session
type Display interface {
	SetSize(width, height int)

	// CreateGameLayout builds the in-game layout
	CreateGameLayout()

	// PrepareVideo starts preparing visual assets. ready is called once,
	// from any goroutine, when they are prepared.
	PrepareVideo(ready func())

	// Title plays the intro sequence and returns when it completes
	Title(ctx context.Context) error

	Start()
	Stop()
}

// DisplayConfig is passed to a DisplayFactory during Prepare
type DisplayConfig struct {
	Container Container
	Width     int
	Height    int
	Song      *song.Song
	Session   *Session
}

// DisplayFactory constructs the display for a prepared song
type DisplayFactory func(DisplayConfig) (Display, error)

// Container is the visual surface a display renders into
type Container interface {
	// Clear releases the container's contents
	Clear()
}
