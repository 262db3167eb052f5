//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tilde expands to home", "~/rollen", filepath.Join(home, "rollen")},
		{"absolute path unchanged", "/var/lib/rollen", "/var/lib/rollen"},
		{"relative path unchanged", "data/rollen", "data/rollen"},
		{"empty string unchanged", "", ""},
		{"tilde only", "~", home},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	if len(paths) == 0 {
		t.Fatal("getConfigPaths() returned empty slice")
	}

	// Last path should be local config.toml
	if last := paths[len(paths)-1]; last != "config.toml" {
		t.Errorf("last config path = %q, want %q", last, "config.toml")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ROLLEN_LOG_LEVEL", "log_level"},
		{"ROLLEN_SERVER__URL", "server.url"},
		{"ROLLEN_PLAYBACK__PROGRESS_INTERVAL", "playback.progress_interval"},
		{"ROLLEN_MEDIA_SESSION__MPRIS", "media_session.mpris"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envKey(tt.in))
		})
	}
}

func TestLoad_NoFiles(t *testing.T) {
	cfg, err := load([]string{filepath.Join(t.TempDir(), "missing.toml")})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.HasServer())
	assert.False(t, cfg.HasNowPlaying())
}

func TestLoad_BasicConfig(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
data_dir = "/tmp/rollen-data"

[server]
url = "http://localhost:8080/"
timeout = "5s"

[playback]
progress_interval = "250ms"
seek_settle = "50ms"

[media_session]
mpris = false

[now_playing]
listen = ":3000"
allowed_origins = ["http://localhost:5173"]
`)

	cfg, err := load([]string{path})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/rollen-data", cfg.DataDir)
	assert.Equal(t, "http://localhost:8080", cfg.Server.URL, "trailing slash trimmed")
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 250*time.Millisecond, cfg.GetPlaybackConfig().ProgressInterval)
	assert.Equal(t, 50*time.Millisecond, cfg.GetPlaybackConfig().SeekSettle)
	assert.False(t, cfg.MPRISEnabled())
	assert.True(t, cfg.NotificationsEnabled())
	assert.True(t, cfg.HasNowPlaying())
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.NowPlaying.AllowedOrigins)
}

func TestLoad_LaterFilesWin(t *testing.T) {
	first := writeConfig(t, `
log_level = "debug"
[server]
url = "http://first"
`)
	second := writeConfig(t, `
[server]
url = "http://second"
`)

	cfg, err := load([]string{first, second})
	require.NoError(t, err)

	assert.Equal(t, "http://second", cfg.Server.URL)
	assert.Equal(t, "debug", cfg.LogLevel, "keys absent from later files are kept")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[server]
url = "http://from-file"
`)
	t.Setenv("ROLLEN_SERVER__URL", "http://from-env/")
	t.Setenv("ROLLEN_LOG_LEVEL", "warn")

	cfg, err := load([]string{path})
	require.NoError(t, err)

	assert.Equal(t, "http://from-env", cfg.Server.URL)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_InvalidToml(t *testing.T) {
	path := writeConfig(t, "invalid = [[[")

	_, err := load([]string{path})
	assert.Error(t, err)
}

func TestLoad_DataDirExpansion(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}
	path := writeConfig(t, `data_dir = "~/rollen"`)

	cfg, err := load([]string{path})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "rollen"), cfg.DataDir)
}

func TestGetPlaybackConfig_Defaults(t *testing.T) {
	cfg := &Config{}

	got := cfg.GetPlaybackConfig()

	assert.Equal(t, 500*time.Millisecond, got.ProgressInterval)
	assert.Equal(t, 100*time.Millisecond, got.SeekSettle)
	assert.Equal(t, 2*time.Second, got.BackwardSeekMasked)
	require.NotNil(t, got.ResumeLastSession)
	assert.True(t, *got.ResumeLastSession)
}

func TestGetPlaybackConfig_InvalidValues(t *testing.T) {
	disabled := false
	cfg := &Config{Playback: PlaybackConfig{
		ProgressInterval:   -1,
		SeekSettle:         0,
		BackwardSeekMasked: -time.Second,
		ResumeLastSession:  &disabled,
	}}

	got := cfg.GetPlaybackConfig()

	assert.Equal(t, 500*time.Millisecond, got.ProgressInterval)
	assert.Equal(t, 100*time.Millisecond, got.SeekSettle)
	assert.Equal(t, 2*time.Second, got.BackwardSeekMasked)
	assert.False(t, *got.ResumeLastSession)
}

func TestRequestTimeout_Default(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
}

func TestMediaSessionToggles(t *testing.T) {
	off := false
	on := true
	tests := []struct {
		name          string
		cfg           MediaSessionConfig
		mpris, notify bool
	}{
		{"defaults enabled", MediaSessionConfig{}, true, true},
		{"mpris disabled", MediaSessionConfig{MPRIS: &off}, false, true},
		{"notifications disabled", MediaSessionConfig{Notifications: &off}, true, false},
		{"explicitly enabled", MediaSessionConfig{MPRIS: &on, Notifications: &on}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{MediaSession: tt.cfg}
			assert.Equal(t, tt.mpris, cfg.MPRISEnabled())
			assert.Equal(t, tt.notify, cfg.NotificationsEnabled())
		})
	}
}
