// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the Output interface with oto and headless implementations
// Package output provides audio playback backends.
//
// Oto plays through the system audio device. Headless discards samples but
// paces writes in real time, so tracks still end on schedule on machines
// without audio hardware.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(48000, 2)
//	err = out.Write(samples)
//	err = out.Drain(ctx)
package output
