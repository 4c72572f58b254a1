// ABOUTME: Command line configuration for the host and participant binaries
// ABOUTME: Reads SINGALONG_* environment variables, then applies flags on top
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable
const EnvPrefix = "SINGALONG_"

// Host configures a hosted session
type Host struct {
	SongLocation string        `env:"SONG"`
	Width        int           `env:"WIDTH" envDefault:"80"`
	Height       int           `env:"HEIGHT" envDefault:"24"`
	Port         int           `env:"PORT" envDefault:"8928"`
	Name         string        `env:"NAME"`
	PlayerName   string        `env:"PLAYER" envDefault:"singer"`
	LogFile      string        `env:"LOG_FILE" envDefault:"singalong.log"`
	HistoryPath  string        `env:"HISTORY_DB" envDefault:"singalong-history.db"`
	CacheDir     string        `env:"CACHE_DIR"`
	Headless     bool          `env:"HEADLESS_AUDIO"`
	NoTUI        bool          `env:"NO_TUI"`
	NoDiscovery  bool          `env:"NO_DISCOVERY"`
	Intro        time.Duration `env:"INTRO" envDefault:"3s"`
	SampleRate   int           `env:"SAMPLE_RATE" envDefault:"48000"`
}

// Participant configures a participant joining a hosted session
type Participant struct {
	HostAddr string        `env:"HOST"`
	Name     string        `env:"NAME"`
	LogFile  string        `env:"LOG_FILE" envDefault:"singalong-join.log"`
	CacheDir string        `env:"CACHE_DIR"`
	NoTUI    bool          `env:"NO_TUI"`
	Discover time.Duration `env:"DISCOVER_TIMEOUT" envDefault:"10s"`
}

// parseEnv loads SINGALONG_* variables into target
func parseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadHost reads the host configuration. args excludes the program name;
// a positional argument names the song when -song is not given.
func LoadHost(args []string, output io.Writer) (Host, error) {
	var cfg Host
	if err := parseEnv(&cfg); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("singalong", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.SongLocation, "song", cfg.SongLocation, "Song text location (URL or path)")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Display width in columns")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Display height in rows")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port for remote participants")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "Session name advertised via mDNS (default: hostname-singalong)")
	fs.StringVar(&cfg.PlayerName, "player", cfg.PlayerName, "Name of the local singer")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file path")
	fs.StringVar(&cfg.HistoryPath, "history-db", cfg.HistoryPath, "Play history database path (empty disables history)")
	fs.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "Download cache directory (default: temp dir)")
	fs.BoolVar(&cfg.Headless, "headless-audio", cfg.Headless, "Play without an audio device")
	fs.BoolVar(&cfg.NoTUI, "no-tui", cfg.NoTUI, "Disable TUI, use streaming logs instead")
	fs.BoolVar(&cfg.NoDiscovery, "no-discovery", cfg.NoDiscovery, "Do not advertise the session via mDNS")
	fs.DurationVar(&cfg.Intro, "intro", cfg.Intro, "Title card duration")
	fs.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Output sample rate")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.SongLocation == "" && fs.NArg() > 0 {
		cfg.SongLocation = fs.Arg(0)
	}

	if cfg.Name == "" {
		cfg.Name = defaultName("singalong")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(os.TempDir(), "singalong-cache")
	}

	return cfg, cfg.Validate()
}

// Validate reports configuration errors
func (c Host) Validate() error {
	var errs []error
	if c.SongLocation == "" {
		errs = append(errs, errors.New("a song location is required"))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid display size %dx%d", c.Width, c.Height))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("invalid sample rate %d", c.SampleRate))
	}
	return errors.Join(errs...)
}

// LoadParticipant reads the participant configuration. A positional
// argument names the host when -host is not given.
func LoadParticipant(args []string, output io.Writer) (Participant, error) {
	var cfg Participant
	if err := parseEnv(&cfg); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("singalong-join", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.HostAddr, "host", cfg.HostAddr, "Host address (skip mDNS)")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "Participant name (default: hostname-participant)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file path")
	fs.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "Download cache directory (default: temp dir)")
	fs.BoolVar(&cfg.NoTUI, "no-tui", cfg.NoTUI, "Disable TUI, use streaming logs instead")
	fs.DurationVar(&cfg.Discover, "discover-timeout", cfg.Discover, "How long to browse for a host")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.HostAddr == "" && fs.NArg() > 0 {
		cfg.HostAddr = fs.Arg(0)
	}

	if cfg.Name == "" {
		cfg.Name = defaultName("participant")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(os.TempDir(), "singalong-cache")
	}
	if cfg.Discover <= 0 {
		return cfg, fmt.Errorf("invalid discover timeout %v", cfg.Discover)
	}

	return cfg, nil
}

// defaultName derives a name from the hostname
func defaultName(suffix string) string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%s", hostname, suffix)
}
