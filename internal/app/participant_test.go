// ABOUTME: Tests for participant application orchestration
// ABOUTME: Joins a hub backed by a stub session and follows start and finish
package app

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Resonate-Protocol/singalong-go/internal/config"
	"github.com/Resonate-Protocol/singalong-go/pkg/game"
	"github.com/Resonate-Protocol/singalong-go/pkg/remote"
	"github.com/Resonate-Protocol/singalong-go/pkg/song"
)

// stubSession is a hosted session that never plays by itself
type stubSession struct {
	location string
}

func (s *stubSession) ID() string                    { return "session-1" }
func (s *stubSession) SongLocation() string          { return s.location }
func (s *stubSession) Song() *song.Song              { return &song.Song{Title: "Waterloo", Artist: "ABBA"} }
func (s *stubSession) Origin() (time.Duration, bool) { return 5 * time.Second, true }

func startHub(t *testing.T, location string, onJoin func(*remote.RemotePlayer) error) (*remote.Hub, string) {
	t.Helper()

	hostClock := game.ClockFunc(func() time.Duration { return 5 * time.Second })
	hub := remote.NewHub(remote.Config{
		Session: &stubSession{location: location},
		Clock:   hostClock,
		OnJoin:  onJoin,
	})

	server := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})

	return hub, strings.TrimPrefix(server.URL, "http://")
}

func newTestParticipant(t *testing.T, addr string) *Participant {
	t.Helper()

	p, err := NewParticipant(config.Participant{
		HostAddr: addr,
		Name:     "kitchen",
		CacheDir: t.TempDir(),
		NoTUI:    true,
		Discover: time.Second,
	}, ParticipantOptions{})
	if err != nil {
		t.Fatalf("failed to create participant: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestParticipantFollowsSession(t *testing.T) {
	songPath := writeSong(t)
	hub, addr := startHub(t, songPath, nil)
	p := newTestParticipant(t, addr)

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(context.Background()) }()

	waitFor(t, "participant to join", func() bool { return len(hub.Players()) == 1 })
	waitFor(t, "song to load", func() bool { return strings.Contains(p.Screen().View(), "Waiting") })

	if p.CurrentTime() != 0 {
		t.Errorf("expected zero time before start, got %v", p.CurrentTime())
	}

	remotePlayer := hub.Players()[0]
	if remotePlayer.Name() != "kitchen" {
		t.Errorf("expected participant name kitchen, got %s", remotePlayer.Name())
	}
	if err := remotePlayer.Start(); err != nil {
		t.Fatalf("failed to start participant: %v", err)
	}

	waitFor(t, "lyrics to show", func() bool {
		view := p.Screen().View()
		return strings.Contains(view, "ABBA - Waterloo")
	})

	hub.Finished()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("expected clean finish, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("participant did not finish")
	}

	if !strings.Contains(p.Screen().View(), "Finished") {
		t.Errorf("expected finished screen, got %q", p.Screen().View())
	}
}

func TestParticipantRejected(t *testing.T) {
	_, addr := startHub(t, writeSong(t), func(*remote.RemotePlayer) error {
		return game.ErrPrecondition
	})
	p := newTestParticipant(t, addr)

	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(err.Error(), "rejected") {
		t.Errorf("expected rejection error, got %v", err)
	}
}

func TestParticipantHostGone(t *testing.T) {
	hub, addr := startHub(t, writeSong(t), nil)
	p := newTestParticipant(t, addr)

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(context.Background()) }()

	waitFor(t, "participant to join", func() bool { return len(hub.Players()) == 1 })
	waitFor(t, "song to load", func() bool { return strings.Contains(p.Screen().View(), "Waiting") })
	hub.Close()

	select {
	case err := <-errCh:
		if err == nil || !strings.Contains(err.Error(), "disconnected") {
			t.Errorf("expected disconnect error, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("participant did not notice the host leaving")
	}
}

func TestParticipantNoHostFound(t *testing.T) {
	p, err := NewParticipant(config.Participant{
		Name:     "kitchen",
		CacheDir: t.TempDir(),
		NoTUI:    true,
		Discover: 50 * time.Millisecond,
	}, ParticipantOptions{})
	if err != nil {
		t.Fatalf("failed to create participant: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}
