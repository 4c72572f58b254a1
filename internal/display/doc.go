// ABOUTME: Terminal display package
// ABOUTME: Renders a session's title card and lyrics in the terminal
// Package display implements the session display for terminals.
//
// A Screen is the container; it wraps a bubbletea program (or a plain model
// when running without a TUI). Terminal is the game.Display that lays out
// the song's lyrics during preparation, plays a short title card, and then
// follows the session clock to show the current and next lyric line.
package display
