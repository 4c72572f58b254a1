// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 16-bit and 24-bit little-endian PCM to int32 samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/singalong-go/pkg/audio"
)

// RawFormat is assumed for headerless .pcm/.raw files
var RawFormat = audio.Format{
	Codec:      "pcm",
	SampleRate: 44100,
	Channels:   2,
	BitDepth:   16,
}

// PCM decodes interleaved little-endian PCM in the given format
func PCM(data []byte, format audio.Format) (audio.Buffer, error) {
	if format.Channels <= 0 || format.SampleRate <= 0 {
		return audio.Buffer{}, fmt.Errorf("invalid pcm format: %dHz %dch", format.SampleRate, format.Channels)
	}

	var samples []int32
	switch format.BitDepth {
	case 16:
		samples = pcm16(data)
	case 24:
		samples = pcm24(data)
	default:
		return audio.Buffer{}, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	// Drop a trailing partial frame
	samples = samples[:len(samples)-len(samples)%format.Channels]

	return audio.Buffer{Samples: samples, Format: format}, nil
}

// pcm16 converts 16-bit little-endian bytes to left-justified int32 samples
func pcm16(data []byte) []int32 {
	numSamples := len(data) / 2
	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return samples
}

// pcm24 converts packed 24-bit little-endian bytes to int32 samples
func pcm24(data []byte) []int32 {
	numSamples := len(data) / 3
	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		samples[i] = audio.SampleFrom24Bit([3]byte{data[i*3], data[i*3+1], data[i*3+2]})
	}
	return samples
}
