// ABOUTME: Local player for the person singing at the host
// ABOUTME: Records when it was started and stopped by the session
package player

import (
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/singalong-go/pkg/game"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Local is the player sitting at the hosting machine
type Local struct {
	id    string
	name  string
	clock clockwork.Clock

	mu        sync.Mutex
	started   bool
	startedAt time.Time
	stoppedAt time.Time
	onChange  func(started bool)
}

// NewLocal creates a local player. A nil clock uses the real clock.
func NewLocal(name string, clock clockwork.Clock) *Local {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Local{
		id:    uuid.New().String(),
		name:  name,
		clock: clock,
	}
}

// Kind reports the local variant
func (l *Local) Kind() game.Kind {
	return game.KindLocal
}

// ID returns the player's unique identifier
func (l *Local) ID() string {
	return l.id
}

// Name returns the player's display name
func (l *Local) Name() string {
	return l.name
}

// OnChange registers a callback for start/stop transitions
func (l *Local) OnChange(fn func(started bool)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Start marks the player as singing
func (l *Local) Start() error {
	l.mu.Lock()
	l.started = true
	l.startedAt = l.clock.Now()
	fn := l.onChange
	l.mu.Unlock()

	log.Printf("Local player %s started", l.name)
	if fn != nil {
		fn(true)
	}
	return nil
}

// Stop marks the player as done
func (l *Local) Stop() error {
	l.mu.Lock()
	l.started = false
	l.stoppedAt = l.clock.Now()
	fn := l.onChange
	l.mu.Unlock()

	log.Printf("Local player %s stopped", l.name)
	if fn != nil {
		fn(false)
	}
	return nil
}

// Started reports whether the player is between Start and Stop
func (l *Local) Started() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started
}

// SangFor returns how long the player was started; zero until stopped
func (l *Local) SangFor() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.startedAt.IsZero() || l.stoppedAt.Before(l.startedAt) {
		return 0
	}
	return l.stoppedAt.Sub(l.startedAt)
}
