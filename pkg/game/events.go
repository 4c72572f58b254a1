// ABOUTME: Session lifecycle events
// ABOUTME: Explicit publish/subscribe for the error, ready, and finished signals
package game

import (
	"sync"
	"time"
)

// EventKind names a lifecycle signal
type EventKind int

const (
	// EventError carries a fetch, parse, decode, or display failure in Err
	EventError EventKind = iota + 1
	// EventReady fires once, when audio and display are both prepared
	EventReady
	// EventFinished fires once, when audio playback ends
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventError:
		return "error"
	case EventReady:
		return "ready"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event is a lifecycle signal emitted by a Session
type Event struct {
	Kind EventKind
	Err  error         // set for EventError
	At   time.Duration // session time when emitted
}

// Handler receives session events
type Handler func(Event)

type subscription struct {
	handler Handler
}

// emitter delivers events to handlers in subscription order
type emitter struct {
	mu   sync.Mutex
	subs []*subscription
}

func (e *emitter) subscribe(h Handler) func() {
	sub := &subscription{handler: h}

	e.mu.Lock()
	e.subs = append(e.subs, sub)
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, s := range e.subs {
				if s == sub {
					e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	subs := make([]*subscription, len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, s := range subs {
		s.handler(ev)
	}
}
