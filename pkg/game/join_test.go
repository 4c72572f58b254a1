// ABOUTME: Tests for the readiness join
// ABOUTME: Tests order independence, duplicate arrivals, and concurrent arrivals
package game

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestJoinOrderIndependence(t *testing.T) {
	orders := [][]Branch{
		{BranchAudio, BranchDisplay},
		{BranchDisplay, BranchAudio},
		{BranchAudio, BranchAudio, BranchDisplay, BranchDisplay},
		{BranchDisplay, BranchDisplay, BranchAudio, BranchAudio},
	}

	for _, order := range orders {
		fired := 0
		j := NewJoin(func() { fired++ })

		for i, b := range order {
			got := j.Arrive(b)
			complete := j.Arrived(BranchAudio) && j.Arrived(BranchDisplay)
			if got && !complete {
				t.Errorf("%v: fired at arrival %d before both branches", order, i)
			}
		}

		if fired != 1 {
			t.Errorf("%v: expected continuation once, got %d", order, fired)
		}
		if !j.Fired() {
			t.Errorf("%v: expected Fired() to be true", order)
		}
	}
}

func TestJoinSingleBranchDoesNotFire(t *testing.T) {
	fired := false
	j := NewJoin(func() { fired = true })

	j.Arrive(BranchAudio)
	j.Arrive(BranchAudio)

	if fired || j.Fired() {
		t.Error("join fired with only one branch")
	}
	if j.Arrived(BranchDisplay) {
		t.Error("display branch should not have arrived")
	}
}

func TestJoinIgnoresUnknownBranches(t *testing.T) {
	fired := false
	j := NewJoin(func() { fired = true })

	j.Arrive(Branch(0x80))
	j.Arrive(BranchAudio)

	if fired {
		t.Error("unknown branch completed the join")
	}
}

func TestJoinConcurrentArrivals(t *testing.T) {
	for i := 0; i < 100; i++ {
		var fired atomic.Int32
		j := NewJoin(func() { fired.Add(1) })

		var wg sync.WaitGroup
		for k := 0; k < 8; k++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				j.Arrive(BranchAudio)
			}()
			go func() {
				defer wg.Done()
				j.Arrive(BranchDisplay)
			}()
		}
		wg.Wait()

		if n := fired.Load(); n != 1 {
			t.Fatalf("iteration %d: expected continuation once, got %d", i, n)
		}
	}
}

func TestBranchString(t *testing.T) {
	if BranchAudio.String() != "audio" || BranchDisplay.String() != "display" {
		t.Error("unexpected branch names")
	}
}
