// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Decodes whole MP3, FLAC, Ogg Opus, and raw PCM files
// Package decode turns complete encoded song files into PCM buffers.
//
// Supports: MP3, FLAC, Ogg Opus, raw PCM (16-bit and 24-bit)
//
// All decoders output int32 samples in 24-bit range for consistent
// processing downstream.
//
// Example:
//
//	buf, err := decode.File("waterloo.mp3", data)
//	if errors.Is(err, decode.ErrUnsupported) { ... }
package decode
