// ABOUTME: Bubbletea model for the singalong screen
// ABOUTME: Renders the title card, the current lyric line, and progress
package display

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type phase int

const (
	phaseIdle phase = iota
	phaseLayout
	phaseTitle
	phasePlaying
	phaseFinished
)

// Messages the display sends to the model
type (
	statusMsg string

	layoutMsg struct {
		Title  string
		Artist string
	}

	titleMsg struct{}

	frameMsg struct {
		Line     string
		Next     string
		Elapsed  time.Duration
		Duration time.Duration
	}

	stopMsg  struct{}
	clearMsg struct{}
)

// model is the screen state
type model struct {
	phase  phase
	status string

	title  string
	artist string

	line     string
	next     string
	elapsed  time.Duration
	duration time.Duration

	width  int
	height int

	quitChan chan struct{} // signals that the user asked to quit
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	artistStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	lineStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	nextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	faintStyle = lipgloss.NewStyle().Faint(true)
)

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case statusMsg:
		m.status = string(msg)

	case layoutMsg:
		m.phase = phaseLayout
		m.title = msg.Title
		m.artist = msg.Artist

	case titleMsg:
		m.phase = phaseTitle

	case frameMsg:
		m.phase = phasePlaying
		m.line = msg.Line
		m.next = msg.Next
		m.elapsed = msg.Elapsed
		m.duration = msg.Duration

	case stopMsg:
		m.phase = phaseFinished

	case clearMsg:
		m = model{width: m.width, height: m.height, quitChan: m.quitChan}
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	switch m.phase {
	case phaseIdle:
		if m.status != "" {
			b.WriteString(faintStyle.Render(m.status))
		}

	case phaseLayout, phaseTitle:
		b.WriteString(titleStyle.Render(m.title))
		b.WriteString("\n")
		b.WriteString(artistStyle.Render(m.artist))

	case phasePlaying:
		b.WriteString(faintStyle.Render(fmt.Sprintf("%s - %s", m.artist, m.title)))
		b.WriteString("\n\n")
		b.WriteString(lineStyle.Render(m.line))
		b.WriteString("\n")
		b.WriteString(nextStyle.Render(m.next))
		b.WriteString("\n\n")
		b.WriteString(m.renderProgress())

	case phaseFinished:
		b.WriteString(titleStyle.Render(m.title))
		b.WriteString("\n")
		b.WriteString(faintStyle.Render("Finished"))
	}

	view := b.String()
	if m.width > 0 && m.height > 0 {
		view = lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, view)
	}
	return view + "\n" + faintStyle.Render("Press 'q' or Ctrl+C to quit")
}

// renderProgress renders elapsed time against the song length
func (m model) renderProgress() string {
	width := 30
	filled := 0
	if m.duration > 0 {
		filled = int(int64(width) * int64(m.elapsed) / int64(m.duration))
	}
	filled = max(0, min(filled, width))

	return fmt.Sprintf("%s%s %s / %s",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		formatDuration(m.elapsed),
		formatDuration(m.duration))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
