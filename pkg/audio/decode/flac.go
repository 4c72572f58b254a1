// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes a complete FLAC file to int32 samples
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/singalong-go/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLAC decodes an entire FLAC file, scaling samples into 24-bit range
func FLAC(data []byte) (audio.Buffer, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("failed to open flac stream: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bps := int(stream.Info.BitsPerSample)
	if bps > 24 {
		return audio.Buffer{}, fmt.Errorf("unsupported flac bit depth: %d", bps)
	}
	shift := 24 - bps

	samples := make([]int32, 0, int(stream.Info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return audio.Buffer{}, fmt.Errorf("flac decode error: %w", err)
		}

		n := frame.Subframes[0].NSamples
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, frame.Subframes[ch].Samples[i]<<shift)
			}
		}
	}

	return audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      "flac",
			SampleRate: int(stream.Info.SampleRate),
			Channels:   channels,
			BitDepth:   24,
		},
	}, nil
}
