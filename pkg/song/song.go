// ABOUTME: Song entity and UltraStar text parser
// ABOUTME: Resolves media references against the song's base location
package song

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NoteKind identifies the type of an UltraStar note line
type NoteKind byte

const (
	NoteNormal    NoteKind = ':'
	NoteGolden    NoteKind = '*'
	NoteFreestyle NoteKind = 'F'
	NoteRap       NoteKind = 'R'
	NoteRapGolden NoteKind = 'G'
)

// Note is a single sung syllable
type Note struct {
	Kind   NoteKind
	Start  int // beat
	Length int // beats
	Pitch  int
	Text   string
}

// Line is a lyric line, terminated by a line break or the end of the song
type Line struct {
	Notes []Note
}

// Start returns the first beat of the line
func (l Line) Start() int {
	if len(l.Notes) == 0 {
		return 0
	}
	return l.Notes[0].Start
}

// End returns the beat after the last note of the line
func (l Line) End() int {
	if len(l.Notes) == 0 {
		return 0
	}
	last := l.Notes[len(l.Notes)-1]
	return last.Start + last.Length
}

// Text returns the lyrics of the line
func (l Line) Text() string {
	var b strings.Builder
	for _, n := range l.Notes {
		b.WriteString(n.Text)
	}
	return strings.TrimSpace(b.String())
}

// Song is a parsed song description
type Song struct {
	Title  string
	Artist string

	// Resolved media locations; empty when the tag is absent
	AudioLocation      string
	VideoLocation      string
	CoverLocation      string
	BackgroundLocation string

	BPM      float64
	Gap      time.Duration
	VideoGap time.Duration

	Lines []Line

	// Tags holds every header tag, keyed by upper-case name
	Tags map[string]string

	base string
}

// BaseLocation strips the last path segment from a song location
func BaseLocation(location string) string {
	i := strings.LastIndex(location, "/")
	if i < 0 {
		return ""
	}
	return location[:i]
}

// Parse parses UltraStar song text. base is used to resolve relative media
// references and is usually BaseLocation(songLocation).
func Parse(base, text string) (*Song, error) {
	s := &Song{
		Tags: make(map[string]string),
		base: base,
	}

	var current Line
	flush := func() {
		if len(current.Notes) > 0 {
			s.Lines = append(s.Lines, current)
		}
		current = Line{}
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	ended := false
	for scanner.Scan() && !ended {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}

		switch raw[0] {
		case '#':
			key, value, ok := strings.Cut(raw[1:], ":")
			if !ok {
				return nil, fmt.Errorf("line %d: malformed tag %q", lineNo, raw)
			}
			s.Tags[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)

		case byte(NoteNormal), byte(NoteGolden), byte(NoteFreestyle), byte(NoteRap), byte(NoteRapGolden):
			note, err := parseNote(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current.Notes = append(current.Notes, note)

		case '-':
			flush()

		case 'E':
			ended = true

		case 'P':
			// duet part markers; both parts are sung as one

		default:
			return nil, fmt.Errorf("line %d: unexpected %q", lineNo, raw)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read song text: %w", err)
	}
	flush()

	if err := s.applyTags(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseNote parses "<kind> <start> <length> <pitch> <text>". The numbers
// may be separated by any run of spaces or tabs. A single separator follows
// the pitch and everything after it, leading spaces included, is the text.
func parseNote(raw string) (Note, error) {
	rest := raw[1:]

	var nums [3]int
	for i := range nums {
		rest = strings.TrimLeft(rest, " \t")
		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			end = len(rest)
		}
		if end == 0 {
			return Note{}, fmt.Errorf("malformed note %q", raw)
		}
		n, err := strconv.Atoi(rest[:end])
		if err != nil {
			return Note{}, fmt.Errorf("malformed note %q: %w", raw, err)
		}
		nums[i] = n
		rest = rest[end:]
	}

	note := Note{
		Kind:   NoteKind(raw[0]),
		Start:  nums[0],
		Length: nums[1],
		Pitch:  nums[2],
	}
	if rest != "" {
		note.Text = rest[1:]
	}
	return note, nil
}

func (s *Song) applyTags() error {
	s.Title = s.Tags["TITLE"]
	s.Artist = s.Tags["ARTIST"]

	mp3, ok := s.Tags["MP3"]
	if !ok || mp3 == "" {
		return fmt.Errorf("missing #MP3 tag")
	}
	s.AudioLocation = s.Resolve(mp3)
	s.VideoLocation = s.Resolve(s.Tags["VIDEO"])
	s.CoverLocation = s.Resolve(s.Tags["COVER"])
	s.BackgroundLocation = s.Resolve(s.Tags["BACKGROUND"])

	if v, ok := s.Tags["BPM"]; ok {
		bpm, err := parseDecimal(v)
		if err != nil || bpm <= 0 {
			return fmt.Errorf("invalid #BPM %q", v)
		}
		s.BPM = bpm
	}
	if v, ok := s.Tags["GAP"]; ok {
		gap, err := parseDecimal(v)
		if err != nil {
			return fmt.Errorf("invalid #GAP %q", v)
		}
		s.Gap = time.Duration(gap * float64(time.Millisecond))
	}
	if v, ok := s.Tags["VIDEOGAP"]; ok {
		gap, err := parseDecimal(v)
		if err != nil {
			return fmt.Errorf("invalid #VIDEOGAP %q", v)
		}
		s.VideoGap = time.Duration(gap * float64(time.Second))
	}

	return nil
}

// parseDecimal accepts both "300.5" and the common "300,5"
func parseDecimal(v string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
}

// Resolve resolves a media reference against the song's base location.
// Absolute references (with a scheme or a leading slash) are returned as is.
func (s *Song) Resolve(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.Contains(ref, "://") || strings.HasPrefix(ref, "/") || s.base == "" {
		return ref
	}
	return s.base + "/" + ref
}

// BeatDuration is the length of one UltraStar beat (a quarter of a BPM beat)
func (s *Song) BeatDuration() time.Duration {
	if s.BPM <= 0 {
		return 0
	}
	return time.Duration(float64(time.Minute) / (s.BPM * 4))
}

// BeatTime returns the playback time at which a beat occurs
func (s *Song) BeatTime(beat int) time.Duration {
	return s.Gap + time.Duration(beat)*s.BeatDuration()
}

// LineAt returns the index of the lyric line to show at elapsed playback
// time t, or -1 before the first line starts.
func (s *Song) LineAt(t time.Duration) int {
	idx := -1
	for i, l := range s.Lines {
		if s.BeatTime(l.Start()) > t {
			break
		}
		idx = i
	}
	return idx
}
