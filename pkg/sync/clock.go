// ABOUTME: Clock synchronization with drift compensation
// ABOUTME: Tracks both offset AND drift to handle clock frequency differences
package sync

import (
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// maxRTT discards samples taken during network congestion
	maxRTT = 100000 // 100ms

	// maxResidual rejects samples that suggest a clock jump
	maxResidual = 50000 // 50ms

	// degradedRTT marks quality degraded above this round trip
	degradedRTT = 50000

	// lostAfter marks sync lost when no sample arrives in time
	lostAfter = 5 * time.Second
)

// Quality represents sync quality
type Quality int

const (
	QualityGood Quality = iota
	QualityDegraded
	QualityLost
)

func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityDegraded:
		return "degraded"
	default:
		return "lost"
	}
}

// ClockSync manages clock synchronization with drift compensation.
// All values are microseconds; host times are on the host's session clock.
type ClockSync struct {
	clock clockwork.Clock

	mu             sync.RWMutex
	offset         int64   // host - client
	drift          float64 // dimensionless: μs/μs
	rtt            int64
	quality        Quality
	lastSync       time.Time
	lastSyncMicros int64 // client time when offset/drift were last updated
	sampleCount    int
	smoothingRate  float64
}

// NewClockSync creates a new clock synchronizer. A nil clock uses the
// real clock.
func NewClockSync(clock clockwork.Clock) *ClockSync {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClockSync{
		clock:         clock,
		smoothingRate: 0.1, // 10% weight to new samples
		quality:       QualityLost,
	}
}

// ClientMicros returns the raw local time in microseconds. Use it only for
// the t1/t4 timestamps of a sync exchange.
func (cs *ClockSync) ClientMicros() int64 {
	return cs.clock.Now().UnixMicro()
}

// ProcessSyncResponse processes one round trip: t1 client send, t2 host
// receive, t3 host send, t4 client receive
func (cs *ClockSync) ProcessSyncResponse(t1, t2, t3, t4 int64) {
	rtt, measuredOffset := calculateOffset(t1, t2, t3, t4)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.rtt = rtt

	if rtt > maxRTT {
		log.Printf("Discarding sync sample: high RTT %dμs", rtt)
		return
	}

	cs.lastSync = cs.clock.Now()

	// First sync: initialize offset, no drift yet
	if cs.sampleCount == 0 {
		cs.offset = measuredOffset
		cs.lastSyncMicros = t4
		cs.sampleCount++
		cs.quality = QualityGood
		log.Printf("Initial sync: offset=%dμs, rtt=%dμs", cs.offset, rtt)
		return
	}

	dt := float64(t4 - cs.lastSyncMicros)
	if dt <= 0 {
		log.Printf("Discarding sync sample: non-monotonic time")
		return
	}

	// Second sync: calculate initial drift
	if cs.sampleCount == 1 {
		cs.drift = float64(measuredOffset-cs.offset) / dt
		cs.offset = measuredOffset
		cs.lastSyncMicros = t4
		cs.sampleCount++
		cs.quality = qualityFor(rtt)
		log.Printf("Second sync: offset=%dμs, drift=%.9f, rtt=%dμs", cs.offset, cs.drift, rtt)
		return
	}

	// Subsequent syncs: predict offset using drift, then correct both
	predictedOffset := cs.offset + int64(cs.drift*dt)
	residual := measuredOffset - predictedOffset

	if residual > maxResidual || residual < -maxResidual {
		log.Printf("Discarding sync sample: large residual %dμs (possible clock jump)", residual)
		return
	}

	// Fixed-gain Kalman-style update
	cs.offset = predictedOffset + int64(cs.smoothingRate*float64(residual))
	cs.drift += cs.smoothingRate * float64(residual) / dt
	cs.lastSyncMicros = t4
	cs.sampleCount++
	cs.quality = qualityFor(rtt)
}

// calculateOffset computes RTT and clock offset
func calculateOffset(t1, t2, t3, t4 int64) (rtt, offset int64) {
	rtt = (t4 - t1) - (t3 - t2)

	// Positive = host ahead of client
	offset = ((t2 - t1) + (t3 - t4)) / 2

	return
}

func qualityFor(rtt int64) Quality {
	if rtt < degradedRTT {
		return QualityGood
	}
	return QualityDegraded
}

// Synced reports whether at least one sample has been accepted
func (cs *ClockSync) Synced() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.sampleCount > 0
}

// GetStats returns sync statistics
func (cs *ClockSync) GetStats() (offset, rtt int64, quality Quality) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.offset, cs.rtt, cs.quality
}

// Drift returns the estimated drift rate
func (cs *ClockSync) Drift() float64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.drift
}

// CheckQuality updates quality based on time since last sync
func (cs *ClockSync) CheckQuality() Quality {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.clock.Since(cs.lastSync) > lostAfter {
		cs.quality = QualityLost
	}

	return cs.quality
}

// HostNow returns the current time on the host's clock in microseconds.
// Before the first sample it returns zero.
func (cs *ClockSync) HostNow() int64 {
	clientNow := cs.ClientMicros()

	cs.mu.RLock()
	defer cs.mu.RUnlock()

	if cs.sampleCount == 0 {
		return 0
	}

	// host = client + offset + drift * (client - last_sync)
	dt := clientNow - cs.lastSyncMicros
	return clientNow + cs.offset + int64(cs.drift*float64(dt))
}

// Elapsed returns the host clock time since originMicros, or zero when
// unsynced or before the origin
func (cs *ClockSync) Elapsed(originMicros int64) time.Duration {
	if !cs.Synced() {
		return 0
	}
	d := cs.HostNow() - originMicros
	if d < 0 {
		return 0
	}
	return time.Duration(d) * time.Microsecond
}
