// ABOUTME: Game session package
// ABOUTME: Readiness aggregation, playback clock, and lifecycle fan-out for one play session
// Package game controls a single play session of a sing-along game.
//
// A Session loads a song description, prepares audio and display resources
// concurrently, fires a single ready event once both are prepared, owns the
// playback clock origin, and fans start/stop calls out to the display and
// every registered player in registration order.
//
// Lifecycle:
//
//	unprepared --Prepare--> preparing --(audio decoded AND display ready)--> ready
//	ready --Start--> playing --(audio ended)--> finished
//	any state --Cleanup--> released
//
// Example:
//
//	s, err := game.New(game.Config{
//	    Container:    screen,
//	    Width:        80,
//	    Height:       24,
//	    SongLocation: "https://example.com/songs/abba/song.txt",
//	}, game.Options{
//	    Fetcher:  fetcher,
//	    Engine:   audioEngine,
//	    Displays: display.Factory(prog),
//	})
//	unsubscribe := s.Subscribe(func(e game.Event) { ... })
//	err = s.Prepare(ctx)
package game
