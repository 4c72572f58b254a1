// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes a complete MP3 file to int32 samples
package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/singalong-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3 decodes an entire MP3 file. go-mp3 always produces 16-bit stereo.
func MP3(data []byte) (audio.Buffer, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("mp3 decode error: %w", err)
	}

	return PCM(raw, audio.Format{
		Codec:      "mp3",
		SampleRate: decoder.SampleRate(),
		Channels:   2,
		BitDepth:   16,
	})
}
