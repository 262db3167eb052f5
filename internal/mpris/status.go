package mpris

import (
	"time"

	"github.com/llehouerou/rollen/internal/playback"
)

// Player is the playback adapter surface exposed over MPRIS.
type Player interface {
	Play() error
	Pause() error
	PlayPause() error
	Next() error
	Previous() error
	Stop() error
	SeekTo(position time.Duration) error
	Snapshot() playback.Session
}

var _ Player = (*playback.Adapter)(nil)

// playbackStatus maps a session to an MPRIS PlaybackStatus value.
func playbackStatus(s playback.Session) string {
	switch {
	case s.Playing:
		return "Playing"
	case s.Phase == playback.PhaseIdle || s.Phase == playback.PhaseEnded || !s.IsLoaded():
		return "Stopped"
	default:
		return "Paused"
	}
}

// seekTarget applies a relative MPRIS seek to the current position.
func seekTarget(s playback.Session, offset time.Duration) time.Duration {
	return max(s.Position+offset, 0)
}
