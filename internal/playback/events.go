package playback

import "time"

// Update is one entry of the state stream. The stream is level-triggered:
// the same value may be repeated.
type Update interface {
	isUpdate()
}

// Idle is emitted when playback halts with nothing prepared.
type Idle struct{}

// Buffering is emitted while a source is being prepared.
type Buffering struct {
	Position time.Duration
}

// Ready is emitted once the current item's duration is known.
type Ready struct {
	Duration time.Duration
}

// Playing reports whether audio is advancing.
type Playing struct {
	IsPlaying bool
}

// Progress is the sampled or sought position.
type Progress struct {
	Position time.Duration
}

// Current identifies the track under the cursor. It is authoritative for
// "what track is this".
type Current struct {
	Index   int
	TrackID int64
	Title   string
	Artist  string
}

// Ended is emitted when the last item of the sequence finishes.
type Ended struct{}

// Failed is emitted when the engine cannot prepare or play the current
// item. The adapter stays in PhaseFailed until the next load, navigation
// or stop.
type Failed struct {
	Err error
}

func (Idle) isUpdate()      {}
func (Buffering) isUpdate() {}
func (Ready) isUpdate()     {}
func (Playing) isUpdate()   {}
func (Progress) isUpdate()  {}
func (Current) isUpdate()   {}
func (Ended) isUpdate()     {}
func (Failed) isUpdate()    {}
