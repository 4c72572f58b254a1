// ABOUTME: Resource fetching package
// ABOUTME: Retrieves song text and media from URLs or the local filesystem
// Package fetch retrieves the bytes behind song and media locations.
//
// Locations may be http(s) URLs, file:// URLs, or plain filesystem paths.
// Remote resources can be cached on disk so a song is only downloaded once.
//
// Example:
//
//	f, err := fetch.New(fetch.Config{CacheDir: dir})
//	data, err := f.Fetch(ctx, "https://example.com/songs/abba/song.txt")
package fetch
