// ABOUTME: Tests for the remote participant hub
// ABOUTME: Tests handshake, start/stop delivery, time sync, and rejection
package remote

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Resonate-Protocol/singalong-go/pkg/game"
	"github.com/Resonate-Protocol/singalong-go/pkg/protocol"
	"github.com/Resonate-Protocol/singalong-go/pkg/song"
	"github.com/jonboulle/clockwork"
)

const testOrigin = 2 * time.Second

// fakeSession reports a session that started at testOrigin
type fakeSession struct {
	unstarted bool
}

func (s *fakeSession) ID() string           { return "session-1" }
func (s *fakeSession) SongLocation() string { return "https://example.com/song.txt" }
func (s *fakeSession) Song() *song.Song {
	return &song.Song{Title: "Waterloo", Artist: "ABBA"}
}
func (s *fakeSession) Origin() (time.Duration, bool) {
	if s.unstarted {
		return 0, false
	}
	return testOrigin, true
}

type hubHarness struct {
	hub     *Hub
	session *fakeSession
	server  *httptest.Server
	clock   *clockwork.FakeClock
	joined  chan *RemotePlayer
}

func newHubHarness(t *testing.T, onJoin func(*RemotePlayer) error) *hubHarness {
	t.Helper()

	fc := clockwork.NewFakeClock()
	clock := game.NewClock(fc)
	h := &hubHarness{clock: fc, session: &fakeSession{}, joined: make(chan *RemotePlayer, 4)}

	if onJoin == nil {
		onJoin = func(p *RemotePlayer) error {
			h.joined <- p
			return nil
		}
	}

	h.hub = NewHub(Config{
		Session: h.session,
		Clock:   clock,
		OnJoin:  onJoin,
	})
	h.server = httptest.NewServer(h.hub)
	t.Cleanup(func() {
		h.hub.Close()
		h.server.Close()
	})

	fc.Advance(5 * time.Second)
	return h
}

func (h *hubHarness) connect(t *testing.T, id string) (*protocol.Client, error) {
	t.Helper()
	client := protocol.NewClient(protocol.Config{
		HostAddr:      strings.TrimPrefix(h.server.URL, "http://"),
		ParticipantID: id,
		Name:          "Participant " + id,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	t.Cleanup(client.Close)
	return client, nil
}

func (h *hubHarness) waitJoined(t *testing.T) *RemotePlayer {
	t.Helper()
	select {
	case p := <-h.joined:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for participant to join")
		return nil
	}
}

func receive[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		var zero T
		return zero
	}
}

func TestHandshake(t *testing.T) {
	h := newHubHarness(t, nil)

	client, err := h.connect(t, "p1")
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	player := h.waitJoined(t)

	if client.Welcome.SessionID != "session-1" {
		t.Errorf("expected session-1, got %s", client.Welcome.SessionID)
	}
	if client.Welcome.SongTitle != "Waterloo" || client.Welcome.SongArtist != "ABBA" {
		t.Errorf("unexpected song in welcome: %+v", client.Welcome)
	}

	if player.Kind() != game.KindRemote {
		t.Errorf("expected remote kind, got %s", player.Kind())
	}
	if player.ParticipantID() != "p1" || player.Name() != "Participant p1" {
		t.Errorf("unexpected player identity: %s %s", player.ParticipantID(), player.Name())
	}
	if player.ID() == "" || player.ID() == "p1" {
		t.Errorf("expected host-assigned player ID, got %q", player.ID())
	}
	if len(h.hub.Players()) != 1 {
		t.Errorf("expected 1 connected player, got %d", len(h.hub.Players()))
	}
}

func TestStartStopFinished(t *testing.T) {
	h := newHubHarness(t, nil)

	client, err := h.connect(t, "p1")
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	player := h.waitJoined(t)

	if err := player.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	start := receive(t, client.Start)
	if start.OriginMicros != testOrigin.Microseconds() {
		t.Errorf("expected origin %d, got %d", testOrigin.Microseconds(), start.OriginMicros)
	}
	if start.SongLocation != "https://example.com/song.txt" {
		t.Errorf("unexpected song location %s", start.SongLocation)
	}
	if !player.Started() {
		t.Error("expected player to be started")
	}

	if err := player.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	receive(t, client.Stop)
	if player.Started() {
		t.Error("expected player to be stopped")
	}

	h.hub.Finished()
	receive(t, client.Finished)
}

func TestTimeSync(t *testing.T) {
	h := newHubHarness(t, nil)

	client, err := h.connect(t, "p1")
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	h.waitJoined(t)

	if err := client.SendTimeSync(42); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	resp := receive(t, client.TimeSyncResp)
	if resp.ClientTransmitted != 42 {
		t.Errorf("expected echoed timestamp 42, got %d", resp.ClientTransmitted)
	}
	want := (5 * time.Second).Microseconds()
	if resp.ServerReceived != want || resp.ServerTransmitted != want {
		t.Errorf("expected host times %d, got %d/%d", want, resp.ServerReceived, resp.ServerTransmitted)
	}
}

func TestJoinRejected(t *testing.T) {
	h := newHubHarness(t, func(p *RemotePlayer) error {
		return errors.New("session already started")
	})

	_, err := h.connect(t, "p1")
	if err == nil {
		t.Fatal("expected rejected connect")
	}
	if !strings.Contains(err.Error(), "session already started") {
		t.Errorf("expected rejection reason, got %v", err)
	}
}

func TestDuplicateParticipantRejected(t *testing.T) {
	h := newHubHarness(t, nil)

	if _, err := h.connect(t, "p1"); err != nil {
		t.Fatalf("first connect failed: %v", err)
	}
	h.waitJoined(t)

	_, err := h.connect(t, "p1")
	if err == nil {
		t.Fatal("expected duplicate to be rejected")
	}
	if !strings.Contains(err.Error(), "duplicate_participant") {
		t.Errorf("expected duplicate error, got %v", err)
	}
}

func TestSendAfterDisconnect(t *testing.T) {
	h := newHubHarness(t, nil)

	client, err := h.connect(t, "p1")
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	player := h.waitJoined(t)
	client.Close()

	deadline := time.After(2 * time.Second)
	for {
		if err := player.Start(); err != nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("start kept succeeding after disconnect")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if len(h.hub.Players()) != 0 {
		t.Errorf("expected disconnected player to be removed, got %d", len(h.hub.Players()))
	}
}

func TestStartBeforeSessionStarts(t *testing.T) {
	h := newHubHarness(t, nil)
	h.session.unstarted = true

	if _, err := h.connect(t, "p1"); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	player := h.waitJoined(t)

	if err := player.Start(); err == nil {
		t.Error("expected start to fail before the session starts")
	}
	if player.Started() {
		t.Error("player should not be started")
	}
}

func TestCloseFlushesQueuedMessages(t *testing.T) {
	h := newHubHarness(t, nil)

	client, err := h.connect(t, "p1")
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	player := h.waitJoined(t)

	if err := player.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	h.hub.Finished()
	h.hub.Close()

	receive(t, client.Stop)
	receive(t, client.Finished)

	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not closed after flushing")
	}

	if err := player.Stop(); err == nil {
		t.Error("expected sends to fail after close")
	}
}
