package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Jellyfin contains connection settings for the media server whose library
// is analyzed.
type Jellyfin struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

// Analysis contains the knobs for the segment-detection pipeline.
type Analysis struct {
	// Libraries is a comma-separated allow-list of library names. Empty
	// analyzes every library.
	Libraries string `toml:"libraries"`
	// SkippedShows lists series to skip, optionally with season suffixes,
	// e.g. "Some Show;S1;S2, Other Show".
	SkippedShows string `toml:"skipped_shows"`
	// SkippedMovies lists movie names to skip, comma-separated.
	SkippedMovies         string `toml:"skipped_movies"`
	Percent               int    `toml:"percent"`
	LengthLimitMinutes    int    `toml:"length_limit_minutes"`
	MinSegmentSeconds     int    `toml:"min_segment_seconds"`
	MaxParallelism        int    `toml:"max_parallelism"`
	EpisodeCreditsMinutes int    `toml:"episode_credits_minutes"`
	MovieCreditsMinutes   int    `toml:"movie_credits_minutes"`
	AnalyzeSeasonZero     bool   `toml:"analyze_season_zero"`
	IntroChapterPattern   string `toml:"intro_chapter_pattern"`
	CreditsChapterPattern string `toml:"credits_chapter_pattern"`
}

// Blacklist controls the durable no-result memory.
type Blacklist struct {
	Enabled bool `toml:"enabled"`
}

// Tools points at the external media binaries.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Daemon controls scheduled and event-driven runs.
type Daemon struct {
	// Schedule is a cron expression for periodic full-library analysis.
	Schedule string `toml:"schedule"`
	// Listen is the address of the library-change webhook endpoint. Empty
	// disables the listener; runs then only happen on schedule or SIGHUP.
	Listen string `toml:"listen"`
	// DebounceSeconds delays a run after a library-changed notification so
	// bursts of events coalesce into one run.
	DebounceSeconds     int  `toml:"debounce_seconds"`
	RunOnLibraryChange  bool `toml:"run_on_library_change"`
	RunAfterLibraryScan bool `toml:"run_after_library_scan"`
}

// Config is the root configuration document.
type Config struct {
	StateDir  string    `toml:"state_dir"`
	LogLevel  string    `toml:"log_level"`
	LogFormat string    `toml:"log_format"`
	Jellyfin  Jellyfin  `toml:"jellyfin"`
	Analysis  Analysis  `toml:"analysis"`
	Blacklist Blacklist `toml:"blacklist"`
	Tools     Tools     `toml:"tools"`
	Daemon    Daemon    `toml:"daemon"`
}

// DefaultConfigPath returns the expected config file location.
func DefaultConfigPath() string {
	return "~/.config/skipdetect/config.toml"
}

// Load reads configuration from path, falling back to defaults for any value
// not present in the file. A missing file yields fs.ErrNotExist.
func Load(path string) (*Config, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", expanded, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("read config %s: %w", expanded, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", expanded, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault behaves like Load but substitutes defaults when the file is
// absent.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			def := Default()
			if nerr := def.normalize(); nerr != nil {
				return nil, nerr
			}
			return &def, nil
		}
		return nil, err
	}
	return cfg, nil
}

// WriteSample writes the annotated sample configuration to path.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file %s already exists", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// BlacklistDBPath returns the location of the blacklist database.
func (c *Config) BlacklistDBPath() string {
	return filepath.Join(c.StateDir, "blacklist.db")
}

// LockFilePath returns the single-instance lock location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.StateDir, "skipdetect.lock")
}

// LogFilePath returns the rolling log file location.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.StateDir, "skipdetect.log")
}

// EnsureDirectories creates the state directory tree.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.StateDir, 0o755); err != nil {
		return fmt.Errorf("ensure state dir: %w", err)
	}
	return nil
}

func (c *Config) normalize() error {
	expanded, err := ExpandPath(c.StateDir)
	if err != nil {
		return err
	}
	c.StateDir = expanded
	c.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(c.Jellyfin.URL), "/")
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
	return nil
}

// ExpandPath resolves a leading ~ against the current user's home directory.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return trimmed, nil
}
