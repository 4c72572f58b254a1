// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts decoded songs to the output device's sample rate
// Package resample provides audio sample rate conversion.
//
// The output context runs at a single rate for the whole process, so every
// decoded song is converted to that rate before playback.
//
// Example:
//
//	buf = resample.Buffer(buf, 48000)
package resample
