// ABOUTME: Audio engine implementation
// ABOUTME: Owns the output device, the clock, and the decode pipeline
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/singalong-go/pkg/audio"
	"github.com/Resonate-Protocol/singalong-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/singalong-go/pkg/audio/output"
	"github.com/Resonate-Protocol/singalong-go/pkg/audio/resample"
	"github.com/Resonate-Protocol/singalong-go/pkg/game"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2

	// DefaultChunk is how much audio each output write carries
	DefaultChunk = 100 * time.Millisecond
)

// Config holds engine configuration
type Config struct {
	SampleRate int
	Channels   int
	Chunk      time.Duration
	Clock      clockwork.Clock
}

// Engine decodes songs into tracks and provides the playback clock
type Engine struct {
	game.Clock

	config Config
	out    output.Output

	mu     sync.Mutex
	opened bool
}

// New creates an engine that plays through out
func New(out output.Output, config Config) *Engine {
	if config.SampleRate <= 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.Channels <= 0 {
		config.Channels = DefaultChannels
	}
	if config.Chunk <= 0 {
		config.Chunk = DefaultChunk
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	return &Engine{
		Clock:  game.NewClock(config.Clock),
		config: config,
		out:    out,
	}
}

// Format returns the format tracks are converted to
func (e *Engine) Format() audio.Format {
	return audio.Format{
		Codec:      "pcm",
		SampleRate: e.config.SampleRate,
		Channels:   e.config.Channels,
		BitDepth:   24,
	}
}

// Decode decodes a complete audio file into a track in the engine's format
func (e *Engine) Decode(ctx context.Context, name string, data []byte) (game.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf, err := decode.File(name, data)
	if err != nil {
		return nil, err
	}
	if buf.Frames() == 0 {
		return nil, fmt.Errorf("no audio frames in %s", name)
	}

	log.Printf("Decoded %s: %s %dHz %dch, %v",
		name, buf.Format.Codec, buf.Format.SampleRate, buf.Format.Channels, buf.Duration())

	buf = remix(buf, e.config.Channels)
	buf = resample.Buffer(buf, e.config.SampleRate)

	return newTrack(e, buf), nil
}

// open lazily opens the output device in the engine's format
func (e *Engine) open() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opened {
		return nil
	}
	if err := e.out.Open(e.config.SampleRate, e.config.Channels); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	e.opened = true
	return nil
}

// Close releases the output device
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.opened {
		return nil
	}
	e.opened = false
	return e.out.Close()
}

// remix converts a buffer to the given channel count. Downmixing to mono
// averages; otherwise matching channels are copied and the rest carry the
// average.
func remix(buf audio.Buffer, channels int) audio.Buffer {
	in := buf.Format.Channels
	if in == channels || in <= 0 || channels <= 0 {
		return buf
	}

	frames := buf.Frames()
	out := make([]int32, frames*channels)
	for f := 0; f < frames; f++ {
		frame := buf.Samples[f*in : (f+1)*in]

		var sum int64
		for _, s := range frame {
			sum += int64(s)
		}
		mixed := int32(sum / int64(in))

		for c := 0; c < channels; c++ {
			if c < in && channels > 1 && in > 1 {
				out[f*channels+c] = frame[c]
			} else {
				out[f*channels+c] = mixed
			}
		}
	}

	format := buf.Format
	format.Channels = channels
	return audio.Buffer{Samples: out, Format: format}
}
