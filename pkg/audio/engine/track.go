// ABOUTME: Playable decoded track
// ABOUTME: Streams buffered PCM to the engine output in fixed-size chunks
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/singalong-go/pkg/audio"
)

// Track is a decoded song ready to play
type Track struct {
	engine *Engine
	buf    audio.Buffer

	ctx    context.Context
	cancel context.CancelFunc
	ended  chan struct{}
	exited chan struct{}

	mu      sync.Mutex
	started bool
	err     error // output failure that cut playback short

	played atomic.Int64 // frames written to the output
}

func newTrack(e *Engine, buf audio.Buffer) *Track {
	ctx, cancel := context.WithCancel(context.Background())
	return &Track{
		engine: e,
		buf:    buf,
		ctx:    ctx,
		cancel: cancel,
		ended:  make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// Start begins playback in the background
func (t *Track) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return fmt.Errorf("track already started")
	}
	if t.ctx.Err() != nil {
		return fmt.Errorf("track closed")
	}
	if err := t.engine.open(); err != nil {
		return err
	}

	t.started = true
	go t.play()
	return nil
}

func (t *Track) play() {
	defer close(t.exited)

	channels := t.buf.Format.Channels
	chunk := int(t.engine.config.Chunk*time.Duration(t.buf.Format.SampleRate)/time.Second) * channels
	if chunk <= 0 {
		chunk = channels
	}

	for offset := 0; offset < len(t.buf.Samples); offset += chunk {
		if t.ctx.Err() != nil {
			return
		}

		end := min(offset+chunk, len(t.buf.Samples))
		if err := t.engine.out.Write(t.buf.Samples[offset:end]); err != nil {
			t.fail(fmt.Errorf("output write: %w", err))
			return
		}
		t.played.Add(int64((end - offset) / channels))
	}

	if err := t.engine.out.Drain(t.ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			t.fail(fmt.Errorf("output drain: %w", err))
		}
		return
	}

	close(t.ended)
}

// fail records an output failure and ends the track so listeners do not
// wait for samples that will never play
func (t *Track) fail(err error) {
	if t.ctx.Err() != nil {
		return
	}
	log.Printf("Playback failed: %v", err)

	t.mu.Lock()
	t.err = err
	t.mu.Unlock()

	close(t.ended)
}

// Ended is closed once playback stops, either because every sample was
// played or because the output failed; Err reports the failure. It is
// never closed for a track that was closed early.
func (t *Track) Ended() <-chan struct{} {
	return t.ended
}

// Err returns the output failure that ended playback, if any
func (t *Track) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Duration returns the length of the track
func (t *Track) Duration() time.Duration {
	return t.buf.Duration()
}

// Position returns how much audio has been handed to the output
func (t *Track) Position() time.Duration {
	return time.Duration(t.played.Load()) * time.Second / time.Duration(t.buf.Format.SampleRate)
}

// Close stops playback and waits for the playback goroutine to exit
func (t *Track) Close() error {
	t.cancel()

	t.mu.Lock()
	started := t.started
	t.mu.Unlock()

	if started {
		<-t.exited
	}
	return nil
}
