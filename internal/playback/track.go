package playback

import "time"

// Track is a playable item in a session.
// This is a copy of the data, not a reference to the catalog.
type Track struct {
	ID          int64
	Title       string
	Artist      string
	CoverBase64 string
	Duration    time.Duration
}
