// ABOUTME: Playback clock source
// ABOUTME: Monotonic time reference that the session derives elapsed time from
package game

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is a monotonically increasing time reference
type Clock interface {
	CurrentTime() time.Duration
}

// ClockFunc adapts a function to the Clock interface
type ClockFunc func() time.Duration

// CurrentTime calls f
func (f ClockFunc) CurrentTime() time.Duration {
	return f()
}

// NewClock returns a Clock that reads the time elapsed on c since NewClock
// was called. A nil c uses the real clock.
func NewClock(c clockwork.Clock) Clock {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	epoch := c.Now()
	return ClockFunc(func() time.Duration {
		return c.Since(epoch)
	})
}
