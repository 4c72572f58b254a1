// ABOUTME: Session controller for a single play attempt
// ABOUTME: Aggregates readiness, owns the clock origin, and drives the lifecycle
package game

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/singalong-go/pkg/song"
	"github.com/google/uuid"
)

// Config describes what to play and where to render it
type Config struct {
	Container    Container
	Width        int
	Height       int
	SongLocation string
}

// Options supplies the session's collaborators
type Options struct {
	// Fetcher retrieves song text and audio bytes (required)
	Fetcher Fetcher

	// Engine decodes audio and is the default clock source (required)
	Engine AudioEngine

	// Displays constructs the display once the song is parsed (required)
	Displays DisplayFactory

	// Parse parses song text (default: song.Parse)
	Parse ParseFunc

	// Clock overrides the engine as the timing authority
	Clock Clock
}

// Session is one attempt to play a song, from preparation through finish
type Session struct {
	id     string
	opts   Options
	clock  Clock
	join   *Join
	events emitter
	done   chan struct{}

	mu           sync.Mutex
	container    Container
	width        int
	height       int
	songLocation string
	state        State
	origin       time.Duration
	started      bool
	closed       bool
	players      []Player
	song         *song.Song
	track        Track
	display      Display
}

// New configures a session in the unprepared state. No I/O is performed.
func New(config Config, opts Options) (*Session, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("audio engine is required")
	}
	if opts.Displays == nil {
		return nil, fmt.Errorf("display factory is required")
	}
	if opts.Parse == nil {
		opts.Parse = song.Parse
	}

	clock := opts.Clock
	if clock == nil {
		clock = opts.Engine
	}

	s := &Session{
		id:           uuid.New().String(),
		opts:         opts,
		clock:        clock,
		done:         make(chan struct{}),
		container:    config.Container,
		width:        config.Width,
		height:       config.Height,
		songLocation: config.SongLocation,
		state:        StateUnprepared,
	}
	s.join = NewJoin(s.becomeReady)

	return s, nil
}

// ID returns the session's unique identifier
func (s *Session) ID() string {
	return s.id
}

// Subscribe registers a handler for lifecycle events and returns a function
// that removes it. Handlers run on the goroutine that caused the event and
// must not block.
func (s *Session) Subscribe(h Handler) func() {
	return s.events.subscribe(h)
}

// SetSize updates the stored dimensions and forwards them to the display
func (s *Session) SetSize(width, height int) {
	s.mu.Lock()
	s.width = width
	s.height = height
	display := s.display
	s.mu.Unlock()

	if display != nil {
		display.SetSize(width, height)
	}
}

// Prepare fetches and parses the song, then prepares audio and display
// concurrently. It returns immediately; progress is reported through
// EventReady or EventError. ctx bounds the fetches.
func (s *Session) Prepare(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUnprepared || s.closed {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: prepare called while %s", ErrPrecondition, state)
	}
	s.state = StatePreparing
	location := s.songLocation
	s.mu.Unlock()

	log.Printf("Preparing session %s: %s", s.id, location)
	go s.prepare(ctx, location)

	return nil
}

// prepare loads the song and forks the audio and display branches
func (s *Session) prepare(ctx context.Context, location string) {
	text, err := s.opts.Fetcher.Fetch(ctx, location)
	if err != nil {
		s.fail(fmt.Errorf("%w: song %s: %w", ErrFetch, location, err))
		return
	}

	sng, err := s.opts.Parse(song.BaseLocation(location), string(text))
	if err != nil {
		s.fail(fmt.Errorf("%w: song %s: %w", ErrParse, location, err))
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.song = sng
	s.mu.Unlock()

	log.Printf("Song loaded: %q by %q, audio %s", sng.Title, sng.Artist, sng.AudioLocation)

	go s.loadAudio(ctx, sng)
	s.prepareDisplay(sng)
}

// loadAudio is the audio branch: fetch, decode, arrive
func (s *Session) loadAudio(ctx context.Context, sng *song.Song) {
	data, err := s.opts.Fetcher.Fetch(ctx, sng.AudioLocation)
	if err != nil {
		s.fail(fmt.Errorf("%w: audio %s: %w", ErrFetch, sng.AudioLocation, err))
		return
	}

	track, err := s.opts.Engine.Decode(ctx, sng.AudioLocation, data)
	if err != nil {
		s.fail(fmt.Errorf("%w: audio %s: %w", ErrDecode, sng.AudioLocation, err))
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		track.Close()
		return
	}
	s.track = track
	s.mu.Unlock()

	log.Printf("Audio ready: %v", track.Duration())
	s.join.Arrive(BranchAudio)
}

// prepareDisplay is the display branch: construct, prepare, arrive on ready
func (s *Session) prepareDisplay(sng *song.Song) {
	s.mu.Lock()
	cfg := DisplayConfig{
		Container: s.container,
		Width:     s.width,
		Height:    s.height,
		Song:      sng,
		Session:   s,
	}
	s.mu.Unlock()

	display, err := s.opts.Displays(cfg)
	if err != nil {
		s.fail(fmt.Errorf("%w: %w", ErrDisplay, err))
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		display.Stop()
		return
	}
	s.display = display
	s.mu.Unlock()

	display.PrepareVideo(func() {
		log.Printf("Display ready")
		s.join.Arrive(BranchDisplay)
	})
}

// becomeReady is the join continuation
func (s *Session) becomeReady() {
	s.mu.Lock()
	if s.state != StatePreparing || s.closed {
		s.mu.Unlock()
		return
	}
	s.state = StateReady
	s.mu.Unlock()

	log.Printf("Session %s ready", s.id)
	s.emit(Event{Kind: EventReady})
}

// fail reports a preparation failure; the state does not advance
func (s *Session) fail(err error) {
	log.Printf("Session %s error: %v", s.id, err)
	s.emit(Event{Kind: EventError, Err: err})
}

// Play runs the display's title sequence and then starts playback
func (s *Session) Play(ctx context.Context) error {
	s.mu.Lock()
	state, display, closed := s.state, s.display, s.closed
	s.mu.Unlock()

	if state != StateReady || closed {
		return fmt.Errorf("%w: play called while %s", ErrPrecondition, state)
	}

	display.CreateGameLayout()
	if err := display.Title(ctx); err != nil {
		return fmt.Errorf("title sequence: %w", err)
	}

	return s.Start()
}

// Start records the clock origin and starts the audio, the display, and
// every player in registration order. It fails with ErrPrecondition unless
// the session is ready.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != StateReady || s.closed {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: start called while %s", ErrPrecondition, state)
	}
	s.origin = s.clock.CurrentTime()
	s.started = true
	s.state = StatePlaying
	track, display := s.track, s.display
	players := append([]Player(nil), s.players...)
	s.mu.Unlock()

	log.Printf("Session %s starting with %d players", s.id, len(players))

	if err := track.Start(); err != nil {
		log.Printf("Audio start failed: %v", err)
	}
	display.Start()
	for i, p := range players {
		if err := p.Start(); err != nil {
			log.Printf("Player %d (%s) start failed: %v", i, p.Kind(), err)
		}
	}

	go s.awaitEnd(track)

	return nil
}

// awaitEnd waits for the track to end or the session to be released
func (s *Session) awaitEnd(track Track) {
	select {
	case <-track.Ended():
		s.finish()
	case <-s.done:
	}
}

// finish stops the display and every player, then emits EventFinished
func (s *Session) finish() {
	s.mu.Lock()
	if s.state != StatePlaying || s.closed {
		s.mu.Unlock()
		return
	}
	s.state = StateFinished
	display := s.display
	players := append([]Player(nil), s.players...)
	s.mu.Unlock()

	log.Printf("Session %s finished", s.id)

	display.Stop()
	for i, p := range players {
		if err := p.Stop(); err != nil {
			log.Printf("Player %d (%s) stop failed: %v", i, p.Kind(), err)
		}
	}

	s.emit(Event{Kind: EventFinished})
}

// Cleanup stops the display, releases the audio track, and clears the
// container. It may be called from any state and more than once; no events
// are emitted afterwards.
func (s *Session) Cleanup() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	display, track, container := s.display, s.track, s.container
	s.mu.Unlock()

	if display != nil {
		display.Stop()
	}
	if track != nil {
		if err := track.Close(); err != nil {
			log.Printf("Audio close failed: %v", err)
		}
	}
	if container != nil {
		container.Clear()
	}
}

// AddPlayer appends a player to the fan-out sequence. Players must be added
// before Start.
func (s *Session) AddPlayer(p Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.closed {
		return fmt.Errorf("%w: add player while %s", ErrPrecondition, s.state)
	}
	s.players = append(s.players, p)
	return nil
}

// Players returns the registered players in registration order
func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Player(nil), s.players...)
}

// LocalPlayer returns the first registered Local player, or nil
func (s *Session) LocalPlayer() Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return firstLocal(s.players)
}

// Origin returns the clock reading recorded at Start. The second result
// is false until the session has started.
func (s *Session) Origin() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin, s.started
}

// CurrentTime returns the elapsed playback time, or zero before Start
func (s *Session) CurrentTime() time.Duration {
	s.mu.Lock()
	started, origin := s.started, s.origin
	s.mu.Unlock()

	if !started {
		return 0
	}
	return s.clock.CurrentTime() - origin
}

// Ready reports whether the session has reached the ready state
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state >= StateReady
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Song returns the parsed song, or nil before it is loaded
func (s *Session) Song() *song.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.song
}

// SongLocation returns the configured song location
func (s *Session) SongLocation() string {
	return s.songLocation
}

func (s *Session) emit(ev Event) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	ev.At = s.CurrentTime()
	s.events.emit(ev)
}
