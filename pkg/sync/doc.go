// ABOUTME: Clock synchronization package
// ABOUTME: Provides NTP-style clock sync between participants and a host
// Package sync estimates a host's session clock from a participant.
//
// Participants exchange timestamped messages with the host and feed the
// four timestamps of each round trip to ClockSync, which tracks both the
// offset and the drift between the two clocks.
//
// Example:
//
//	cs := sync.NewClockSync(nil)
//	t1 := cs.ClientMicros()
//	// ... send t1, receive host receive/transmit times t2, t3 ...
//	cs.ProcessSyncResponse(t1, t2, t3, cs.ClientMicros())
//	hostNow := cs.HostNow()
package sync
