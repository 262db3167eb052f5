package playback

import "time"

// Phase is the coarse playback lifecycle, orthogonal to playing/paused.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBuffering
	PhaseReady
	PhaseEnded
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseBuffering:
		return "Buffering"
	case PhaseReady:
		return "Ready"
	case PhaseEnded:
		return "Ended"
	case PhaseFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Session is a snapshot of the playback session. Index is -1 when no
// sequence is loaded.
type Session struct {
	Tracks   []Track
	Index    int
	Phase    Phase
	Playing  bool
	Position time.Duration
	Duration time.Duration
	Err      error // set in PhaseFailed
}

// Current returns the track under the cursor.
func (s Session) Current() (Track, bool) {
	if s.Index < 0 || s.Index >= len(s.Tracks) {
		return Track{}, false
	}
	return s.Tracks[s.Index], true
}

// IsLoaded reports whether a sequence is loaded.
func (s Session) IsLoaded() bool {
	return len(s.Tracks) > 0
}

func (s Session) clone() Session {
	s.Tracks = append([]Track(nil), s.Tracks...)
	return s
}

func emptySession() Session {
	return Session{Index: -1}
}
