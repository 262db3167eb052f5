// Package nowplaying republishes the playback state to websocket viewers.
package nowplaying

import (
	"time"

	"github.com/llehouerou/rollen/internal/playback"
)

// State is the client-facing playback state.
type State struct {
	IsPlaying  bool   `json:"is_playing"`
	Phase      string `json:"phase"`
	ProgressMs int64  `json:"progress_ms"`
	DurationMs int64  `json:"duration_ms"`
	Timestamp  int64  `json:"timestamp"`
	Item       *Item  `json:"item"`
}

// Item is the track being played.
type Item struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

func newState(s playback.Session, now time.Time) State {
	st := State{
		IsPlaying:  s.Playing,
		Phase:      s.Phase.String(),
		ProgressMs: s.Position.Milliseconds(),
		DurationMs: s.Duration.Milliseconds(),
		Timestamp:  now.UnixMilli(),
	}
	if t, ok := s.Current(); ok {
		st.Item = &Item{ID: t.ID, Title: t.Title, Artist: t.Artist}
	}
	return st
}
