// ABOUTME: Audio engine package
// ABOUTME: Decodes whole songs and plays them through an output device
// Package engine turns encoded song audio into playable tracks.
//
// The engine decodes a complete file up front, converts it to the output
// format, and streams it to an output.Output in short chunks when the track
// is started. It also serves as the session's playback clock.
//
// Example:
//
//	eng := engine.New(output.NewOto(), engine.Config{})
//	track, err := eng.Decode(ctx, "song.mp3", data)
//	err = track.Start()
//	<-track.Ended()
package engine
