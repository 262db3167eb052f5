package mpris

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/llehouerou/rollen/internal/playback"
)

func TestPlaybackStatus(t *testing.T) {
	loaded := []playback.Track{{ID: 1}}
	tests := []struct {
		name string
		s    playback.Session
		want string
	}{
		{"empty", playback.Session{Index: -1}, "Stopped"},
		{"playing", playback.Session{Tracks: loaded, Phase: playback.PhaseReady, Playing: true}, "Playing"},
		{"paused", playback.Session{Tracks: loaded, Phase: playback.PhaseReady}, "Paused"},
		{"buffering", playback.Session{Tracks: loaded, Phase: playback.PhaseBuffering}, "Paused"},
		{"ended", playback.Session{Tracks: loaded, Phase: playback.PhaseEnded}, "Stopped"},
		{"stopped", playback.Session{Tracks: loaded, Phase: playback.PhaseIdle}, "Stopped"},
		{"failed", playback.Session{Tracks: loaded, Phase: playback.PhaseFailed}, "Paused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, playbackStatus(tt.s))
		})
	}
}

func TestSeekTarget(t *testing.T) {
	s := playback.Session{Position: 10 * time.Second}

	assert.Equal(t, 15*time.Second, seekTarget(s, 5*time.Second))
	assert.Equal(t, time.Duration(0), seekTarget(s, -30*time.Second))
}
