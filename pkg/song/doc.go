// ABOUTME: Song description package
// ABOUTME: Parses UltraStar song text into lyric lines and media references
// Package song parses UltraStar-style song descriptions.
//
// A song text is a header of #KEY:value tags followed by note lines. Media
// references (#MP3, #VIDEO, #COVER, #BACKGROUND) are resolved against the
// base location of the song text, which is the song location with its last
// path segment removed.
//
// Example:
//
//	base := song.BaseLocation("https://example.com/songs/abba/song.txt")
//	s, err := song.Parse(base, text)
//	fmt.Println(s.AudioLocation) // https://example.com/songs/abba/<#MP3 value>
package song
