// ABOUTME: Whole-file audio decoding
// ABOUTME: Picks a codec from the file name and decodes it to a PCM buffer
package decode

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/Resonate-Protocol/singalong-go/pkg/audio"
)

// ErrUnsupported is returned for file types without a decoder
var ErrUnsupported = errors.New("unsupported audio format")

// CodecFor returns the codec implied by a file name or URL, or "" when the
// extension is not recognised
func CodecFor(name string) string {
	if u, err := url.Parse(name); err == nil && u.Path != "" {
		name = u.Path
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".mp3":
		return "mp3"
	case ".flac":
		return "flac"
	case ".ogg", ".opus":
		return "opus"
	case ".pcm", ".raw":
		return "pcm"
	default:
		return ""
	}
}

// File decodes a complete encoded audio file
func File(name string, data []byte) (audio.Buffer, error) {
	if len(data) == 0 {
		return audio.Buffer{}, fmt.Errorf("empty audio data: %s", name)
	}

	switch codec := CodecFor(name); codec {
	case "mp3":
		return MP3(data)
	case "flac":
		return FLAC(data)
	case "opus":
		return Opus(data)
	case "pcm":
		return PCM(data, RawFormat)
	default:
		return audio.Buffer{}, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
}
