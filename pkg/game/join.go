// ABOUTME: Two-branch readiness join
// ABOUTME: Runs its continuation at most once, when every branch has arrived
package game

import "sync"

// Branch identifies an independently completing preparation task
type Branch uint8

const (
	BranchAudio Branch = 1 << iota
	BranchDisplay

	allBranches = BranchAudio | BranchDisplay
)

func (b Branch) String() string {
	switch b {
	case BranchAudio:
		return "audio"
	case BranchDisplay:
		return "display"
	default:
		return "unknown"
	}
}

// Join is a barrier over the audio and display branches. Arrivals may come
// in any order, from any goroutine, and may repeat; the continuation runs
// exactly once, on the arrival that completes the set.
type Join struct {
	mu      sync.Mutex
	arrived Branch
	fired   bool
	then    func()
}

// NewJoin creates a join that calls then once both branches have arrived
func NewJoin(then func()) *Join {
	return &Join{then: then}
}

// Arrive marks a branch complete. It reports whether this call fired the
// continuation.
func (j *Join) Arrive(b Branch) bool {
	j.mu.Lock()
	j.arrived |= b & allBranches
	fire := j.arrived == allBranches && !j.fired
	if fire {
		j.fired = true
	}
	j.mu.Unlock()

	if fire && j.then != nil {
		j.then()
	}
	return fire
}

// Arrived reports whether a branch has completed
func (j *Join) Arrived(b Branch) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.arrived&b == b
}

// Fired reports whether the continuation has run
func (j *Join) Fired() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fired
}
