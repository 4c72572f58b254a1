// ABOUTME: Test doubles for session collaborators
// ABOUTME: Fake fetcher, engine, track, display, players, and an event recorder
package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	testSongLocation  = "https://example.com/songs/abba/song.txt"
	testAudioLocation = "https://example.com/songs/abba/waterloo.mp3"
	testSongText      = "#TITLE:Waterloo\n#ARTIST:ABBA\n#MP3:waterloo.mp3\n#BPM:300\n: 0 4 59 Wa\n: 4 4 59 ter\n: 8 4 59 loo\nE\n"
)

// callLog records collaborator calls in the order they happen
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeFetcher struct {
	mu    sync.Mutex
	data  map[string][]byte
	errs  map[string]error
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		data: map[string][]byte{
			testSongLocation:  []byte(testSongText),
			testAudioLocation: []byte("encoded audio"),
		},
		errs: map[string]error{},
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, location)
	if err, ok := f.errs[location]; ok {
		return nil, err
	}
	data, ok := f.data[location]
	if !ok {
		return nil, fmt.Errorf("not found: %s", location)
	}
	return data, nil
}

type fakeTrack struct {
	log       *callLog
	ended     chan struct{}
	endOnce   sync.Once
	startMu   sync.Mutex
	starts    int
	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeTrack(log *callLog) *fakeTrack {
	return &fakeTrack{
		log:    log,
		ended:  make(chan struct{}),
		closed: make(chan struct{}),
	}
}

func (t *fakeTrack) Start() error {
	t.startMu.Lock()
	t.starts++
	t.startMu.Unlock()
	t.log.add("audio.start")
	return nil
}

func (t *fakeTrack) Ended() <-chan struct{} { return t.ended }

func (t *fakeTrack) Duration() time.Duration { return 3 * time.Minute }

func (t *fakeTrack) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	t.log.add("audio.close")
	return nil
}

// end simulates the audio reaching its end
func (t *fakeTrack) end() {
	t.endOnce.Do(func() { close(t.ended) })
}

type fakeEngine struct {
	Clock
	track     *fakeTrack
	decodeErr error
	gate      chan struct{} // Decode blocks until closed
}

func (e *fakeEngine) Decode(ctx context.Context, name string, data []byte) (Track, error) {
	if e.gate != nil {
		<-e.gate
	}
	if e.decodeErr != nil {
		return nil, e.decodeErr
	}
	return e.track, nil
}

type fakeDisplay struct {
	log      *callLog
	prepared chan struct{}

	mu     sync.Mutex
	ready  func()
	width  int
	height int
}

func (d *fakeDisplay) SetSize(width, height int) {
	d.mu.Lock()
	d.width, d.height = width, height
	d.mu.Unlock()
	d.log.add(fmt.Sprintf("display.size %dx%d", width, height))
}

func (d *fakeDisplay) CreateGameLayout() { d.log.add("display.layout") }

func (d *fakeDisplay) PrepareVideo(ready func()) {
	d.mu.Lock()
	d.ready = ready
	d.mu.Unlock()
	close(d.prepared)
}

func (d *fakeDisplay) Title(ctx context.Context) error {
	d.log.add("display.title")
	return nil
}

func (d *fakeDisplay) Start() { d.log.add("display.start") }

func (d *fakeDisplay) Stop() { d.log.add("display.stop") }

// signalReady calls the ready callback handed to PrepareVideo
func (d *fakeDisplay) signalReady() {
	d.mu.Lock()
	ready := d.ready
	d.mu.Unlock()
	ready()
}

type fakePlayer struct {
	name string
	kind Kind
	log  *callLog
}

func (p *fakePlayer) Kind() Kind { return p.kind }

func (p *fakePlayer) Start() error {
	p.log.add(p.name + ".start")
	return nil
}

func (p *fakePlayer) Stop() error {
	p.log.add(p.name + ".stop")
	return nil
}

type fakeContainer struct {
	log *callLog
}

func (c *fakeContainer) Clear() { c.log.add("container.clear") }

// recorder collects events and mirrors them into the call log
type recorder struct {
	log    *callLog
	events chan Event

	mu     sync.Mutex
	counts map[EventKind]int
}

func newRecorder(log *callLog) *recorder {
	return &recorder{
		log:    log,
		events: make(chan Event, 16),
		counts: make(map[EventKind]int),
	}
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	r.counts[e.Kind]++
	r.mu.Unlock()
	r.log.add("event." + e.Kind.String())
	r.events <- e
}

func (r *recorder) count(k EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[k]
}

// wait returns the next event or fails the test after a timeout
func (r *recorder) wait(t *testing.T) Event {
	t.Helper()
	select {
	case e := <-r.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

// expectNone fails if an event arrives within a short window
func (r *recorder) expectNone(t *testing.T) {
	t.Helper()
	select {
	case e := <-r.events:
		t.Fatalf("unexpected event %s (err=%v)", e.Kind, e.Err)
	case <-time.After(50 * time.Millisecond):
	}
}

// harness wires a session to fakes
type harness struct {
	log       *callLog
	clock     *clockwork.FakeClock
	fetcher   *fakeFetcher
	engine    *fakeEngine
	track     *fakeTrack
	display   *fakeDisplay
	container *fakeContainer
	rec       *recorder
	session   *Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := &callLog{}
	clock := clockwork.NewFakeClock()
	track := newFakeTrack(log)
	h := &harness{
		log:       log,
		clock:     clock,
		fetcher:   newFakeFetcher(),
		track:     track,
		engine:    &fakeEngine{Clock: NewClock(clock), track: track, gate: make(chan struct{})},
		display:   &fakeDisplay{log: log, prepared: make(chan struct{})},
		container: &fakeContainer{log: log},
		rec:       newRecorder(log),
	}

	s, err := New(Config{
		Container:    h.container,
		Width:        80,
		Height:       24,
		SongLocation: testSongLocation,
	}, Options{
		Fetcher: h.fetcher,
		Engine:  h.engine,
		Displays: func(cfg DisplayConfig) (Display, error) {
			return h.display, nil
		},
	})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	s.Subscribe(h.rec.handle)
	h.session = s

	return h
}

// waitPrepared waits until the display branch has called PrepareVideo
func (h *harness) waitPrepared(t *testing.T) {
	t.Helper()
	select {
	case <-h.display.prepared:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for display preparation")
	}
}

// makeReady prepares the session and drives both branches to completion
func (h *harness) makeReady(t *testing.T) {
	t.Helper()
	if err := h.session.Prepare(context.Background()); err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	h.waitPrepared(t)
	h.display.signalReady()
	close(h.engine.gate)
	if e := h.rec.wait(t); e.Kind != EventReady {
		t.Fatalf("expected ready event, got %s (err=%v)", e.Kind, e.Err)
	}
}
