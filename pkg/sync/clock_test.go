// ABOUTME: Tests for drift-compensated clock synchronization
// ABOUTME: Tests RTT calculation, offset estimation, and host time conversion
package sync

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestCalculateOffset(t *testing.T) {
	tests := []struct {
		name           string
		t1, t2, t3, t4 int64
		rtt, offset    int64
	}{
		{"host ahead", 1000, 6000, 6500, 2500, 1000, 4500},
		{"host behind", 10000, 2000, 2500, 15000, 4500, -10250},
		{"symmetric", 0, 50, 50, 100, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rtt, offset := calculateOffset(tt.t1, tt.t2, tt.t3, tt.t4)
			if rtt != tt.rtt || offset != tt.offset {
				t.Errorf("expected rtt=%d offset=%d, got rtt=%d offset=%d", tt.rtt, tt.offset, rtt, offset)
			}
		})
	}
}

func TestInitialSync(t *testing.T) {
	fc := clockwork.NewFakeClock()
	cs := NewClockSync(fc)

	if cs.Synced() {
		t.Error("expected not synced initially")
	}
	if cs.HostNow() != 0 {
		t.Error("expected zero host time before sync")
	}

	// Host clock reads 5s while the client reads its unix time
	t4 := cs.ClientMicros()
	t1 := t4 - 1000
	cs.ProcessSyncResponse(t1, 5000000, 5000000, t4)

	if !cs.Synced() {
		t.Fatal("expected synced after first response")
	}

	_, rtt, quality := cs.GetStats()
	if rtt != 1000 {
		t.Errorf("expected rtt 1000μs, got %d", rtt)
	}
	if quality != QualityGood {
		t.Errorf("expected good quality, got %s", quality)
	}

	// Host read 5s at t1+500; now is t1+1000 on the client
	if got := cs.HostNow(); got != 5000500 {
		t.Errorf("expected host time 5000500, got %d", got)
	}

	fc.Advance(time.Second)
	if got := cs.HostNow(); got != 6000500 {
		t.Errorf("expected host time to advance with client clock, got %d", got)
	}
}

func TestHighRTTDiscarded(t *testing.T) {
	cs := NewClockSync(clockwork.NewFakeClock())
	cs.ProcessSyncResponse(0, 1000, 1000, 200000)

	if cs.Synced() {
		t.Error("expected high RTT sample to be discarded")
	}
}

func TestDriftEstimation(t *testing.T) {
	fc := clockwork.NewFakeClock()
	cs := NewClockSync(fc)

	// Host runs 100ppm fast: offset grows by 100μs per second
	cs.ProcessSyncResponse(0, 1000, 1000, 0)
	cs.ProcessSyncResponse(1000000, 1001100, 1001100, 1000000)

	drift := cs.Drift()
	if drift < 0.00009 || drift > 0.00011 {
		t.Errorf("expected drift ~0.0001, got %.9f", drift)
	}
}

func TestLargeResidualRejected(t *testing.T) {
	cs := NewClockSync(clockwork.NewFakeClock())
	cs.ProcessSyncResponse(0, 1000, 1000, 0)
	cs.ProcessSyncResponse(1000000, 1001000, 1001000, 1000000)

	before, _, _ := cs.GetStats()
	cs.ProcessSyncResponse(2000000, 2200000, 2200000, 2000000)
	after, _, _ := cs.GetStats()

	if before != after {
		t.Errorf("expected jump to be rejected, offset moved %d -> %d", before, after)
	}
}

func TestCheckQualityLost(t *testing.T) {
	fc := clockwork.NewFakeClock()
	cs := NewClockSync(fc)

	t4 := cs.ClientMicros()
	cs.ProcessSyncResponse(t4, 0, 0, t4)
	if q := cs.CheckQuality(); q != QualityGood {
		t.Fatalf("expected good quality, got %s", q)
	}

	fc.Advance(6 * time.Second)
	if q := cs.CheckQuality(); q != QualityLost {
		t.Errorf("expected lost quality, got %s", q)
	}
}

func TestElapsed(t *testing.T) {
	fc := clockwork.NewFakeClock()
	cs := NewClockSync(fc)

	if cs.Elapsed(0) != 0 {
		t.Error("expected zero elapsed before sync")
	}

	// Host clock equals client clock
	now := cs.ClientMicros()
	cs.ProcessSyncResponse(now, now, now, now)

	origin := now
	fc.Advance(1500 * time.Millisecond)
	if got := cs.Elapsed(origin); got != 1500*time.Millisecond {
		t.Errorf("expected 1.5s elapsed, got %v", got)
	}

	if got := cs.Elapsed(now + int64(time.Hour/time.Microsecond)); got != 0 {
		t.Errorf("expected zero before origin, got %v", got)
	}
}
