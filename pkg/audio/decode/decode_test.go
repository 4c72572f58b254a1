// ABOUTME: Tests for whole-file decoding
// ABOUTME: Tests codec selection, PCM conversion, and invalid input handling
package decode

import (
	"errors"
	"testing"

	"github.com/Resonate-Protocol/singalong-go/pkg/audio"
)

func TestCodecFor(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"song.mp3", "mp3"},
		{"SONG.MP3", "mp3"},
		{"https://example.com/songs/a/song.flac", "flac"},
		{"https://example.com/song.ogg?token=abc", "opus"},
		{"/tmp/song.opus", "opus"},
		{"song.pcm", "pcm"},
		{"song.wav", ""},
		{"song", ""},
	}

	for _, tt := range tests {
		if got := CodecFor(tt.name); got != tt.expected {
			t.Errorf("CodecFor(%q) = %q, expected %q", tt.name, got, tt.expected)
		}
	}
}

func TestFileUnsupported(t *testing.T) {
	_, err := File("song.wav", []byte{1, 2, 3, 4})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestFileEmpty(t *testing.T) {
	if _, err := File("song.mp3", nil); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestFileRawPCM(t *testing.T) {
	// Two stereo frames plus one dangling byte
	data := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0xFF}

	buf, err := File("song.pcm", data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if buf.Format != RawFormat {
		t.Errorf("expected raw format, got %+v", buf.Format)
	}
	if len(buf.Samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(buf.Samples))
	}
	// 0x0100 = 256 -> 256<<8 in 24-bit range
	if buf.Samples[0] != 256<<8 {
		t.Errorf("expected first sample %d, got %d", 256<<8, buf.Samples[0])
	}
	if buf.Frames() != 2 {
		t.Errorf("expected 2 frames, got %d", buf.Frames())
	}
}

func TestPCM24Bit(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 96000, Channels: 2, BitDepth: 24}
	data := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}

	buf, err := PCM(data, format)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(buf.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(buf.Samples))
	}
	if buf.Samples[0] != 0x020100 || buf.Samples[1] != 0x050403 {
		t.Errorf("unexpected samples %#x %#x", buf.Samples[0], buf.Samples[1])
	}
}

func TestPCMDropsPartialFrame(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 44100, Channels: 2, BitDepth: 16}

	buf, err := PCM([]byte{1, 0, 2, 0, 3, 0}, format)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(buf.Samples) != 2 {
		t.Errorf("expected 2 samples, got %d", len(buf.Samples))
	}
}

func TestPCMInvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		format audio.Format
	}{
		{"bit depth", audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 32}},
		{"channels", audio.Format{SampleRate: 48000, BitDepth: 16}},
		{"sample rate", audio.Format{Channels: 2, BitDepth: 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PCM([]byte{0, 0, 0, 0}, tt.format); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestCorruptInput(t *testing.T) {
	garbage := []byte("this is definitely not audio data at all")

	tests := []string{"song.mp3", "song.flac", "song.ogg"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := File(name, garbage); err == nil {
				t.Errorf("expected error decoding garbage as %s", name)
			}
		})
	}
}
