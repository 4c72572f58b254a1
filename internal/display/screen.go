// ABOUTME: Terminal screen the session renders into
// ABOUTME: Wraps a bubbletea program, or a plain model when no TUI is used
package display

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Screen is the container a Terminal display renders into
type Screen struct {
	program  *tea.Program
	quitChan chan struct{}

	mu    sync.Mutex
	model model // headless state when program is nil
}

// NewScreen creates a screen. With useTUI the screen drives a full-window
// bubbletea program; otherwise messages update an in-memory model.
func NewScreen(useTUI bool) *Screen {
	s := &Screen{quitChan: make(chan struct{}, 1)}
	s.model = model{quitChan: s.quitChan}

	if useTUI {
		s.program = tea.NewProgram(s.model, tea.WithAltScreen())
	}
	return s
}

// Run runs the TUI until Quit is called or the user quits. Headless screens
// return immediately.
func (s *Screen) Run() error {
	if s.program == nil {
		return nil
	}
	_, err := s.program.Run()
	return err
}

// Send delivers a message to the model
func (s *Screen) Send(msg tea.Msg) {
	if s.program != nil {
		s.program.Send(msg)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next, _ := s.model.Update(msg)
	s.model = next.(model)
}

// Status shows a line of text while nothing else is on screen
func (s *Screen) Status(text string) {
	s.Send(statusMsg(text))
}

// Clear resets the screen contents
func (s *Screen) Clear() {
	s.Send(clearMsg{})
}

// View renders the headless model; TUI screens return ""
func (s *Screen) View() string {
	if s.program != nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.View()
}

// snapshot returns the headless model
func (s *Screen) snapshot() model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Quit stops the TUI
func (s *Screen) Quit() {
	if s.program != nil {
		s.program.Quit()
	}
}

// QuitChan returns the channel that signals when the user wants to quit
func (s *Screen) QuitChan() <-chan struct{} {
	return s.quitChan
}
