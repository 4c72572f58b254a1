// ABOUTME: Participant application orchestration
// ABOUTME: Connects to a host, follows its clock, and shows the lyrics in time
package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/singalong-go/internal/config"
	"github.com/Resonate-Protocol/singalong-go/internal/display"
	"github.com/Resonate-Protocol/singalong-go/pkg/discovery"
	"github.com/Resonate-Protocol/singalong-go/pkg/fetch"
	"github.com/Resonate-Protocol/singalong-go/pkg/protocol"
	"github.com/Resonate-Protocol/singalong-go/pkg/song"
	clocksync "github.com/Resonate-Protocol/singalong-go/pkg/sync"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	syncInterval = 1 * time.Second
	syncTimeout  = 2 * time.Second
)

// ParticipantOptions overrides the participant's clock
type ParticipantOptions struct {
	Clock clockwork.Clock
}

// Participant follows a hosted session from another machine
type Participant struct {
	config    config.Participant
	clock     clockwork.Clock
	id        string
	screen    *display.Screen
	fetcher   *fetch.Fetcher
	clockSync *clocksync.ClockSync
	client    *protocol.Client
	discovery *discovery.Manager

	mu       sync.Mutex
	location string // song the terminal was laid out for
	terminal *display.Terminal
	started  bool
	origin   int64
}

// NewParticipant creates a participant; nothing connects until Run
func NewParticipant(cfg config.Participant, opts ParticipantOptions) (*Participant, error) {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	fetcher, err := fetch.New(fetch.Config{CacheDir: cfg.CacheDir})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	return &Participant{
		config:    cfg,
		clock:     clock,
		id:        uuid.New().String(),
		screen:    display.NewScreen(!cfg.NoTUI),
		fetcher:   fetcher,
		clockSync: clocksync.NewClockSync(clock),
	}, nil
}

// Screen returns the screen lyrics render into
func (p *Participant) Screen() *display.Screen {
	return p.screen
}

// CurrentTime returns the session time on the host, or zero before start
func (p *Participant) CurrentTime() time.Duration {
	p.mu.Lock()
	started, origin := p.started, p.origin
	p.mu.Unlock()

	if !started {
		return 0
	}
	return p.clockSync.Elapsed(origin)
}

// Run joins the session and follows it until the song finishes, the host
// goes away, the user quits, or ctx is cancelled
func (p *Participant) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := p.screen.Run(); err != nil {
			log.Printf("TUI error: %v", err)
		}
	}()

	addr, err := p.resolveHost(ctx)
	if err != nil {
		return err
	}

	p.screen.Status(fmt.Sprintf("Connecting to %s", addr))
	if err := p.connect(ctx, addr); err != nil {
		return err
	}

	go p.clockSyncLoop(ctx)

	welcome := p.client.Welcome
	if err := p.load(ctx, welcome.SongLocation); err != nil {
		return err
	}
	p.screen.Status(fmt.Sprintf("Waiting for %s to start", welcome.SongTitle))

	return p.follow(ctx)
}

// resolveHost returns the configured address or browses for a host
func (p *Participant) resolveHost(ctx context.Context) (string, error) {
	if p.config.HostAddr != "" {
		return p.config.HostAddr, nil
	}

	p.screen.Status("Looking for a session...")
	p.discovery = discovery.NewManager(discovery.Config{})

	findCtx, cancel := context.WithTimeout(ctx, p.config.Discover)
	defer cancel()

	host, err := p.discovery.Find(findCtx)
	if err != nil {
		return "", err
	}

	log.Printf("Found host %s at %s", host.Name, host.Addr())
	return host.Addr(), nil
}

// connect establishes the session connection
func (p *Participant) connect(ctx context.Context, addr string) error {
	p.client = protocol.NewClient(protocol.Config{
		HostAddr:      addr,
		ParticipantID: p.id,
		Name:          p.config.Name,
	})

	if err := p.client.Connect(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	log.Printf("Joined session %s: %q by %q", p.client.Welcome.SessionID,
		p.client.Welcome.SongTitle, p.client.Welcome.SongArtist)
	return nil
}

// clockSyncLoop continuously syncs with the host clock
func (p *Participant) clockSyncLoop(ctx context.Context) {
	ticker := p.clock.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		p.syncOnce(ctx)

		select {
		case <-ticker.Chan():
		case <-ctx.Done():
			return
		}
	}
}

// syncOnce performs one time exchange
func (p *Participant) syncOnce(ctx context.Context) {
	t1 := p.clockSync.ClientMicros()
	if err := p.client.SendTimeSync(t1); err != nil {
		log.Printf("Time sync send failed: %v", err)
		return
	}

	select {
	case resp := <-p.client.TimeSyncResp:
		t4 := p.clockSync.ClientMicros()
		p.clockSync.ProcessSyncResponse(resp.ClientTransmitted, resp.ServerReceived, resp.ServerTransmitted, t4)

	case <-p.clock.After(syncTimeout):
		log.Printf("Time sync timeout")

	case <-ctx.Done():
	}

	if q := p.clockSync.CheckQuality(); q == clocksync.QualityLost {
		log.Printf("Clock sync lost")
	}
}

// load fetches the song and lays out its lyrics. Reloading the same
// location is a no-op.
func (p *Participant) load(ctx context.Context, location string) error {
	p.mu.Lock()
	loaded := p.terminal != nil && p.location == location
	p.mu.Unlock()
	if loaded {
		return nil
	}

	text, err := p.fetcher.Fetch(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to fetch song: %w", err)
	}
	s, err := song.Parse(song.BaseLocation(location), string(text))
	if err != nil {
		return fmt.Errorf("failed to parse song: %w", err)
	}

	terminal := display.NewTerminal(p.screen, s, p, display.Config{Intro: -1, Clock: p.clock})

	ready := make(chan struct{})
	terminal.PrepareVideo(func() { close(ready) })
	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	if p.terminal != nil {
		p.terminal.Stop()
	}
	p.location = location
	p.terminal = terminal
	p.mu.Unlock()

	log.Printf("Loaded %q by %q", s.Title, s.Artist)
	return nil
}

// follow handles session messages until the session ends for us
func (p *Participant) follow(ctx context.Context) error {
	for {
		select {
		case start := <-p.client.Start:
			if start.SongLocation != "" {
				if err := p.load(ctx, start.SongLocation); err != nil {
					return err
				}
			}
			p.begin(start.OriginMicros)

		case <-p.client.Stop:
			log.Printf("Host stopped our part")
			p.stopTerminal()

		case <-p.client.Finished:
			log.Printf("Song finished")
			p.stopTerminal()
			return nil

		case <-p.client.Done():
			p.stopTerminal()
			// the host closes right after session/finished on shutdown
			select {
			case <-p.client.Finished:
				log.Printf("Song finished")
				return nil
			default:
			}
			return fmt.Errorf("host disconnected")

		case <-p.screen.QuitChan():
			log.Printf("Quit requested")
			return nil

		case <-ctx.Done():
			return nil
		}
	}
}

// begin starts following the host clock from origin
func (p *Participant) begin(origin int64) {
	p.mu.Lock()
	p.started = true
	p.origin = origin
	terminal := p.terminal
	p.mu.Unlock()

	offset, rtt, quality := p.clockSync.GetStats()
	log.Printf("Starting at origin %dμs (offset %dμs, rtt %dμs, %s)", origin, offset, rtt, quality)

	terminal.CreateGameLayout()
	terminal.Start()
}

func (p *Participant) stopTerminal() {
	p.mu.Lock()
	terminal := p.terminal
	p.mu.Unlock()

	if terminal != nil {
		terminal.Stop()
	}
}

// Close leaves the session and releases the screen
func (p *Participant) Close() {
	if p.client != nil {
		if p.client.IsConnected() {
			if err := p.client.SendGoodbye("user_request"); err != nil {
				log.Printf("Goodbye failed: %v", err)
			}
		}
		p.client.Close()
	}
	if p.discovery != nil {
		p.discovery.Stop()
	}
	p.stopTerminal()
	p.screen.Clear()
	p.screen.Quit()
}
