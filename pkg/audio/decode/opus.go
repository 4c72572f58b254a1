// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Decodes a complete Ogg Opus file to int32 samples
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/singalong-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

const (
	opusSampleRate = 48000
	// opusfile does not report the channel count; songs are expected stereo
	opusChannels = 2
	// Max frame size at 48kHz (120ms) per channel
	opusFrameSize = 5760
)

// Opus decodes an entire Ogg Opus file
func Opus(data []byte) (audio.Buffer, error) {
	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("failed to open opus stream: %w", err)
	}
	defer stream.Close()

	pcm16 := make([]int16, opusFrameSize*opusChannels)
	var samples []int32
	for {
		n, err := stream.Read(pcm16)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return audio.Buffer{}, fmt.Errorf("opus decode failed: %w", err)
		}

		for i := 0; i < n*opusChannels; i++ {
			samples = append(samples, audio.SampleFromInt16(pcm16[i]))
		}
	}

	return audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      "opus",
			SampleRate: opusSampleRate,
			Channels:   opusChannels,
			BitDepth:   16,
		},
	}, nil
}
