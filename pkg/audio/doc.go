// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the PCM types shared by the decoders, the
// resampler, and the output backends.
//
//   - Format: sample rate, channel count, and bit depth of decoded audio
//   - Buffer: a whole decoded song as interleaved int32 samples
//
// Samples are kept in 24-bit range; 16-bit sources are left-justified with
// SampleFromInt16 and converted back with SampleToInt16 for output.
//
// Example:
//
//	buf, err := decode.File("song.mp3", data)
//	fmt.Println(buf.Duration())
package audio
