// ABOUTME: HTTP and filesystem fetcher with an on-disk cache
// ABOUTME: Cache entries are keyed by a hash of the location
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout bounds a single remote request
const DefaultTimeout = 60 * time.Second

// Config holds fetcher configuration
type Config struct {
	// CacheDir stores downloaded resources; empty disables caching
	CacheDir string

	// Client is used for remote requests (default: client with DefaultTimeout)
	Client *http.Client
}

// Fetcher retrieves resources by location
type Fetcher struct {
	cacheDir string
	client   *http.Client
}

// New creates a fetcher, creating the cache directory if one is configured
func New(config Config) (*Fetcher, error) {
	if config.CacheDir != "" {
		if err := os.MkdirAll(config.CacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	return &Fetcher{
		cacheDir: config.CacheDir,
		client:   client,
	}, nil
}

// Fetch returns the bytes at location
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, fmt.Errorf("empty location")
	}

	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain path (a single-letter scheme is a Windows drive)
		return readFile(location)
	}

	switch u.Scheme {
	case "file":
		return readFile(u.Path)
	case "http", "https":
		return f.fetchRemote(ctx, location)
	default:
		return nil, fmt.Errorf("unsupported location scheme %q", u.Scheme)
	}
}

func (f *Fetcher) fetchRemote(ctx context.Context, location string) ([]byte, error) {
	cachePath := f.cachePath(location)
	if cachePath != "" {
		if data, err := os.ReadFile(cachePath); err == nil {
			log.Printf("Fetch cache hit: %s", location)
			return data, nil
		}
	}

	log.Printf("Downloading: %s", location)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if cachePath != "" {
		if err := writeCache(cachePath, data); err != nil {
			log.Printf("Failed to cache %s: %v", location, err)
		}
	}

	return data, nil
}

// cachePath returns where location is cached, or "" without a cache
func (f *Fetcher) cachePath(location string) string {
	if f.cacheDir == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(location))
	return filepath.Join(f.cacheDir, fmt.Sprintf("%x%s", hash[:8], getExtension(location)))
}

// Cleanup removes the cache directory
func (f *Fetcher) Cleanup() error {
	if f.cacheDir == "" {
		return nil
	}
	return os.RemoveAll(f.cacheDir)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// writeCache writes through a temp file so readers never see partial data
func writeCache(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// getExtension extracts the file extension from a URL
func getExtension(location string) string {
	// Remove query string
	location = strings.Split(location, "?")[0]
	return filepath.Ext(location)
}
