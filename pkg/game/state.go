// ABOUTME: Session lifecycle states
// ABOUTME: States only ever advance in declaration order
package game

// State is a session lifecycle state
type State int

const (
	StateUnprepared State = iota
	StatePreparing
	StateReady
	StatePlaying
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateUnprepared:
		return "unprepared"
	case StatePreparing:
		return "preparing"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}
