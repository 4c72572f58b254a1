// ABOUTME: Tests for the local player
// ABOUTME: Tests kind, start/stop state, and change notifications
package player

import (
	"testing"
	"time"

	"github.com/Resonate-Protocol/singalong-go/pkg/game"
	"github.com/jonboulle/clockwork"
)

func TestLocalKind(t *testing.T) {
	var p game.Player = NewLocal("host", nil)
	if p.Kind() != game.KindLocal {
		t.Errorf("expected local kind, got %s", p.Kind())
	}
}

func TestLocalStartStop(t *testing.T) {
	fc := clockwork.NewFakeClock()
	l := NewLocal("host", fc)

	var changes []bool
	l.OnChange(func(started bool) { changes = append(changes, started) })

	if l.Started() {
		t.Error("expected not started initially")
	}

	if err := l.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !l.Started() {
		t.Error("expected started")
	}
	if l.SangFor() != 0 {
		t.Errorf("expected zero before stop, got %v", l.SangFor())
	}

	fc.Advance(3 * time.Minute)
	if err := l.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if l.Started() {
		t.Error("expected stopped")
	}
	if l.SangFor() != 3*time.Minute {
		t.Errorf("expected 3m, got %v", l.SangFor())
	}

	if len(changes) != 2 || !changes[0] || changes[1] {
		t.Errorf("unexpected change notifications: %v", changes)
	}
}

func TestLocalIDsAreUnique(t *testing.T) {
	a, b := NewLocal("a", nil), NewLocal("b", nil)
	if a.ID() == b.ID() {
		t.Error("expected unique IDs")
	}
}
