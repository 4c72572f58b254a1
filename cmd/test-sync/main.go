// ABOUTME: Test app to check clock sync against a host
// ABOUTME: Joins a session, runs time exchanges, and prints the filter state
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Resonate-Protocol/singalong-go/pkg/protocol"
	clocksync "github.com/Resonate-Protocol/singalong-go/pkg/sync"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var (
	hostAddr = flag.String("host", "localhost:8928", "Host address")
	name     = flag.String("name", "test-sync", "Participant name")
	rounds   = flag.Int("rounds", 20, "Number of time exchanges")
	interval = flag.Duration("interval", 500*time.Millisecond, "Delay between exchanges")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	fmt.Println("=== Clock Sync Test App ===")
	fmt.Printf("Connecting to %s as '%s'...\n", *hostAddr, *name)

	client := protocol.NewClient(protocol.Config{
		HostAddr:      *hostAddr,
		ParticipantID: uuid.New().String(),
		Name:          *name,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err := client.Connect(ctx)
	cancel()
	if err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer client.Close()

	fmt.Printf("Joined session %s\n\n", client.Welcome.SessionID)
	fmt.Printf("%5s %12s %10s %12s %10s\n", "round", "offset(μs)", "rtt(μs)", "drift", "quality")

	cs := clocksync.NewClockSync(clockwork.NewRealClock())
	for i := 1; i <= *rounds; i++ {
		t1 := cs.ClientMicros()
		if err := client.SendTimeSync(t1); err != nil {
			log.Fatalf("Send failed: %v", err)
		}

		select {
		case resp := <-client.TimeSyncResp:
			cs.ProcessSyncResponse(resp.ClientTransmitted, resp.ServerReceived, resp.ServerTransmitted, cs.ClientMicros())
		case <-time.After(2 * time.Second):
			log.Printf("Round %d timed out", i)
			continue
		}

		offset, rtt, quality := cs.GetStats()
		fmt.Printf("%5d %12d %10d %12.3e %10s\n", i, offset, rtt, cs.Drift(), quality)
		time.Sleep(*interval)
	}

	fmt.Printf("\nHost clock now: %dμs\n", cs.HostNow())
	if err := client.SendGoodbye("test_complete"); err != nil {
		log.Printf("Goodbye failed: %v", err)
	}
	log.Printf("Test complete")
}
