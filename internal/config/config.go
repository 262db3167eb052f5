package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "ROLLEN_"

type Config struct {
	LogLevel string `koanf:"log_level"` // "debug", "info", "warn", "error"
	DataDir  string `koanf:"data_dir"`  // overrides the XDG data directory

	// Backend connection
	Server ServerConfig `koanf:"server"`

	// Playback adapter tuning
	Playback PlaybackConfig `koanf:"playback"`

	// Desktop media session (MPRIS controls and track notifications)
	MediaSession MediaSessionConfig `koanf:"media_session"`

	// Websocket now-playing relay (disabled when listen is empty)
	NowPlaying NowPlayingConfig `koanf:"now_playing"`
}

// ServerConfig holds the backend connection settings.
type ServerConfig struct {
	URL     string        `koanf:"url"`     // e.g., "http://localhost:8080"
	Timeout time.Duration `koanf:"timeout"` // per-request timeout for catalog calls (default: 30s)
}

// PlaybackConfig tunes the playback state adapter.
type PlaybackConfig struct {
	ProgressInterval   time.Duration `koanf:"progress_interval"`    // position sampling cadence (default: 500ms)
	SeekSettle         time.Duration `koanf:"seek_settle"`          // pause before resuming after a masked seek (default: 100ms)
	BackwardSeekMasked time.Duration `koanf:"backward_seek_masked"` // backward jumps at least this long are masked (default: 2s)
	ResumeLastSession  *bool         `koanf:"resume_last_session"`  // reload the last sequence on start (default: true)
}

// MediaSessionConfig toggles desktop integration.
type MediaSessionConfig struct {
	MPRIS         *bool `koanf:"mpris"`         // default: true
	Notifications *bool `koanf:"notifications"` // default: true
}

// NowPlayingConfig configures the websocket relay.
type NowPlayingConfig struct {
	Listen         string   `koanf:"listen"`          // e.g., ":3000"
	AllowedOrigins []string `koanf:"allowed_origins"` // empty allows any origin
}

// Load reads configuration from config files and ROLLEN_* environment
// variables. A .env file in the working directory is loaded first when
// present; variables already set in the environment win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return load(getConfigPaths())
}

func load(configPaths []string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	// Environment overrides files: ROLLEN_SERVER__URL -> server.url
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel: "info",
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize server URL (remove trailing slash)
	cfg.Server.URL = strings.TrimSuffix(cfg.Server.URL, "/")

	if cfg.DataDir != "" {
		cfg.DataDir = expandPath(cfg.DataDir)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/rollen/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "rollen", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasServer returns true if a backend URL is configured.
func (c *Config) HasServer() bool {
	return c.Server.URL != ""
}

// HasNowPlaying returns true if the websocket relay should be started.
func (c *Config) HasNowPlaying() bool {
	return c.NowPlaying.Listen != ""
}

// RequestTimeout returns the catalog request timeout with its default applied.
func (c *Config) RequestTimeout() time.Duration {
	if c.Server.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Server.Timeout
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback

	// Apply defaults
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 500 * time.Millisecond
	}
	if cfg.SeekSettle <= 0 {
		cfg.SeekSettle = 100 * time.Millisecond
	}
	if cfg.BackwardSeekMasked <= 0 {
		cfg.BackwardSeekMasked = 2 * time.Second
	}
	if cfg.ResumeLastSession == nil {
		cfg.ResumeLastSession = boolPtr(true)
	}

	return cfg
}

// MPRISEnabled reports whether the MPRIS bridge should run (default: true).
func (c *Config) MPRISEnabled() bool {
	return c.MediaSession.MPRIS == nil || *c.MediaSession.MPRIS
}

// NotificationsEnabled reports whether track notifications are sent (default: true).
func (c *Config) NotificationsEnabled() bool {
	return c.MediaSession.Notifications == nil || *c.MediaSession.Notifications
}

func boolPtr(b bool) *bool { return &b }
