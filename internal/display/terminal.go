// ABOUTME: Terminal implementation of the session display
// ABOUTME: Lays out lyrics ahead of time and follows the session clock
package display

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/singalong-go/pkg/game"
	"github.com/Resonate-Protocol/singalong-go/pkg/song"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultIntro = 3 * time.Second
	DefaultFrame = 100 * time.Millisecond
)

// Config holds terminal display configuration
type Config struct {
	Intro time.Duration // title card length
	Frame time.Duration // redraw interval while playing
	Clock clockwork.Clock
}

func (c Config) withDefaults() Config {
	if c.Intro < 0 {
		c.Intro = 0
	} else if c.Intro == 0 {
		c.Intro = DefaultIntro
	}
	if c.Frame <= 0 {
		c.Frame = DefaultFrame
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return c
}

// Timer reports elapsed playback time
type Timer interface {
	CurrentTime() time.Duration
}

// lyric is a laid-out lyric line
type lyric struct {
	text  string
	start time.Duration
	end   time.Duration
}

// Terminal renders a session into a Screen
type Terminal struct {
	config Config
	screen *Screen
	song   *song.Song
	timer  Timer

	mu      sync.Mutex
	lyrics  []lyric
	length  time.Duration
	width   int
	height  int
	stop    chan struct{}
	running bool
}

// Factory returns a game.DisplayFactory producing Terminals. The session's
// container must be a *Screen.
func Factory(config Config) game.DisplayFactory {
	config = config.withDefaults()

	return func(dc game.DisplayConfig) (game.Display, error) {
		screen, ok := dc.Container.(*Screen)
		if !ok {
			return nil, fmt.Errorf("container %T is not a terminal screen", dc.Container)
		}
		if dc.Song == nil {
			return nil, fmt.Errorf("no song to display")
		}
		if dc.Session == nil {
			return nil, fmt.Errorf("no session to follow")
		}

		t := NewTerminal(screen, dc.Song, dc.Session, config)
		t.SetSize(dc.Width, dc.Height)
		return t, nil
	}
}

// NewTerminal creates a terminal display for s, timed by timer
func NewTerminal(screen *Screen, s *song.Song, timer Timer, config Config) *Terminal {
	return &Terminal{
		config: config.withDefaults(),
		screen: screen,
		song:   s,
		timer:  timer,
	}
}

// SetSize updates the screen dimensions
func (t *Terminal) SetSize(width, height int) {
	t.mu.Lock()
	t.width = width
	t.height = height
	t.mu.Unlock()

	if width > 0 && height > 0 {
		t.screen.Send(tea.WindowSizeMsg{Width: width, Height: height})
	}
}

// CreateGameLayout shows the song header
func (t *Terminal) CreateGameLayout() {
	t.screen.Send(layoutMsg{Title: t.song.Title, Artist: t.song.Artist})
}

// PrepareVideo lays out the lyrics in the background and calls ready once
// they are done
func (t *Terminal) PrepareVideo(ready func()) {
	go func() {
		lyrics := layout(t.song)

		var length time.Duration
		if n := len(lyrics); n > 0 {
			length = lyrics[n-1].end
		}

		t.mu.Lock()
		t.lyrics = lyrics
		t.length = length
		t.mu.Unlock()

		log.Printf("Laid out %d lyric lines (%v)", len(lyrics), length)
		ready()
	}()
}

// layout resolves every line's text and timing
func layout(s *song.Song) []lyric {
	lyrics := make([]lyric, len(s.Lines))
	for i, line := range s.Lines {
		lyrics[i] = lyric{
			text:  line.Text(),
			start: s.BeatTime(line.Start()),
			end:   s.BeatTime(line.End()),
		}
	}
	return lyrics
}

// Title shows the title card for the intro duration
func (t *Terminal) Title(ctx context.Context) error {
	t.screen.Send(titleMsg{})
	if t.config.Intro == 0 {
		return ctx.Err()
	}

	select {
	case <-t.config.Clock.After(t.config.Intro):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start begins following the session clock
func (t *Terminal) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	stop := t.stop
	t.mu.Unlock()

	t.render()
	go t.loop(stop)
}

func (t *Terminal) loop(stop chan struct{}) {
	ticker := t.config.Clock.NewTicker(t.config.Frame)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			t.render()
		case <-stop:
			return
		}
	}
}

// render sends the frame for the current playback time
func (t *Terminal) render() {
	t.screen.Send(t.frame(t.timer.CurrentTime()))
}

// frame builds the frame shown at elapsed time
func (t *Terminal) frame(elapsed time.Duration) frameMsg {
	t.mu.Lock()
	lyrics, length := t.lyrics, t.length
	t.mu.Unlock()

	f := frameMsg{Elapsed: elapsed, Duration: length}

	i := t.song.LineAt(elapsed)
	switch {
	case i < 0:
		if len(lyrics) > 0 {
			f.Next = lyrics[0].text
		}
	case i < len(lyrics):
		f.Line = lyrics[i].text
		if i+1 < len(lyrics) {
			f.Next = lyrics[i+1].text
		}
	}
	return f
}

// Stop stops following the clock; it may be called more than once
func (t *Terminal) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.stop)
	t.mu.Unlock()

	t.screen.Send(stopMsg{})
}
