// ABOUTME: Host application orchestration
// ABOUTME: Wires the session to audio, display, remote participants, and history
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Resonate-Protocol/singalong-go/internal/config"
	"github.com/Resonate-Protocol/singalong-go/internal/display"
	"github.com/Resonate-Protocol/singalong-go/internal/history"
	"github.com/Resonate-Protocol/singalong-go/internal/player"
	"github.com/Resonate-Protocol/singalong-go/pkg/audio/engine"
	"github.com/Resonate-Protocol/singalong-go/pkg/audio/output"
	"github.com/Resonate-Protocol/singalong-go/pkg/discovery"
	"github.com/Resonate-Protocol/singalong-go/pkg/fetch"
	"github.com/Resonate-Protocol/singalong-go/pkg/game"
	"github.com/Resonate-Protocol/singalong-go/pkg/protocol"
	"github.com/Resonate-Protocol/singalong-go/pkg/remote"
	"github.com/jonboulle/clockwork"
)

// HostOptions overrides the host's devices
type HostOptions struct {
	// Output replaces the audio device chosen from the config
	Output output.Output

	// Clock drives the engine, display, and history (default: real clock)
	Clock clockwork.Clock
}

// Host runs one hosted session from preparation through finish
type Host struct {
	config  config.Host
	clock   clockwork.Clock
	screen  *display.Screen
	fetcher *fetch.Fetcher
	engine  *engine.Engine
	session *game.Session
	local   *player.Local
	hub     *remote.Hub
	history *history.Store

	server    *http.Server
	listener  net.Listener
	discovery *discovery.Manager

	done     chan struct{}
	doneOnce sync.Once
	mu       sync.Mutex
	err      error
}

// NewHost builds the session and its collaborators. No network or audio
// device is touched until Run.
func NewHost(cfg config.Host, opts HostOptions) (*Host, error) {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	out := opts.Output
	if out == nil {
		if cfg.Headless {
			out = output.NewHeadless(clock)
		} else {
			out = output.NewOto()
		}
	}

	fetcher, err := fetch.New(fetch.Config{CacheDir: cfg.CacheDir})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	h := &Host{
		config:  cfg,
		clock:   clock,
		screen:  display.NewScreen(!cfg.NoTUI),
		fetcher: fetcher,
		engine: engine.New(out, engine.Config{
			SampleRate: cfg.SampleRate,
			Clock:      clock,
		}),
		local: player.NewLocal(cfg.PlayerName, clock),
		done:  make(chan struct{}),
	}

	intro := cfg.Intro
	if intro == 0 {
		intro = -1
	}

	session, err := game.New(game.Config{
		Container:    h.screen,
		Width:        cfg.Width,
		Height:       cfg.Height,
		SongLocation: cfg.SongLocation,
	}, game.Options{
		Fetcher:  fetcher,
		Engine:   h.engine,
		Displays: display.Factory(display.Config{Intro: intro, Clock: clock}),
	})
	if err != nil {
		return nil, err
	}
	h.session = session

	if err := session.AddPlayer(h.local); err != nil {
		return nil, err
	}

	h.hub = remote.NewHub(remote.Config{
		Session: session,
		Clock:   h.engine,
		OnJoin: func(p *remote.RemotePlayer) error {
			log.Printf("Participant joined: %s (%s)", p.Name(), p.ParticipantID())
			return session.AddPlayer(p)
		},
	})

	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath, clock)
		if err != nil {
			return nil, err
		}
		h.history = store
	}

	return h, nil
}

// Session returns the hosted session
func (h *Host) Session() *game.Session {
	return h.session
}

// Screen returns the screen the session renders into
func (h *Host) Screen() *display.Screen {
	return h.screen
}

// Addr returns the address participants connect to, once Run is listening
func (h *Host) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}

// Run prepares and plays the session. It returns when the song finishes,
// preparation fails, the user quits, or ctx is cancelled.
func (h *Host) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := h.screen.Run(); err != nil {
			log.Printf("TUI error: %v", err)
		}
	}()
	h.screen.Status(fmt.Sprintf("Loading %s", h.config.SongLocation))

	if err := h.listen(); err != nil {
		return err
	}

	if !h.config.NoDiscovery {
		h.discovery = discovery.NewManager(discovery.Config{
			ServiceName: h.config.Name,
			Port:        h.config.Port,
			SessionID:   h.session.ID(),
			Path:        protocol.Path,
		})
		if err := h.discovery.Advertise(); err != nil {
			log.Printf("Failed to advertise: %v", err)
		}
	}

	if h.history != nil {
		stop, err := h.history.Record(ctx, h.session)
		if err != nil {
			log.Printf("Failed to record history: %v", err)
		} else {
			defer stop()
		}
	}

	unsubscribe := h.session.Subscribe(func(ev game.Event) {
		h.handleEvent(ctx, ev)
	})
	defer unsubscribe()

	if err := h.session.Prepare(ctx); err != nil {
		return err
	}

	select {
	case <-h.done:
	case <-h.screen.QuitChan():
		log.Printf("Quit requested")
	case <-ctx.Done():
	}

	if ctx.Err() != nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// listen starts serving participants
func (h *Host) listen() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", h.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(protocol.Path, h.hub)

	h.mu.Lock()
	h.listener = ln
	h.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	server := h.server
	h.mu.Unlock()

	log.Printf("Accepting participants on %s%s", ln.Addr(), protocol.Path)

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// handleEvent reacts to session events. It runs on the session's
// goroutine, so anything long-running is handed off.
func (h *Host) handleEvent(ctx context.Context, ev game.Event) {
	switch ev.Kind {
	case game.EventReady:
		go func() {
			if err := h.session.Play(ctx); err != nil {
				h.finish(fmt.Errorf("failed to play: %w", err))
			}
		}()

	case game.EventError:
		h.screen.Status(fmt.Sprintf("Error: %v", ev.Err))
		h.finish(ev.Err)

	case game.EventFinished:
		log.Printf("Song finished after %v (local singer sang for %v)", ev.At, h.local.SangFor())
		h.hub.Finished()
		h.finish(nil)
	}
}

// finish ends Run with err
func (h *Host) finish(err error) {
	h.doneOnce.Do(func() {
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
		close(h.done)
	})
}

// Close releases the session and every service the host started
func (h *Host) Close() {
	h.session.Cleanup()
	h.hub.Close()

	if h.discovery != nil {
		h.discovery.Stop()
	}

	h.mu.Lock()
	server := h.server
	h.mu.Unlock()
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		cancel()
	}

	if err := h.engine.Close(); err != nil {
		log.Printf("Audio close error: %v", err)
	}
	if err := h.history.Close(); err != nil {
		log.Printf("History close error: %v", err)
	}

	h.screen.Quit()
}
