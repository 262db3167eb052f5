// Package player defines the media engine contract used by the playback
// adapter, with a streaming implementation and a test double.
package player

import "time"

// State is the engine's coarse readiness. Playing/paused is reported
// separately through IsPlayingChanged.
type State int

const (
	StateIdle State = iota
	StateBuffering
	StateReady
	StateEnded
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateBuffering:
		return "Buffering"
	case StateReady:
		return "Ready"
	case StateEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}

// Item is one entry of the engine's sequence.
type Item struct {
	ID       int64
	URL      string
	Title    string
	Artist   string
	Duration time.Duration // hint used until the stream reports its length
}

// Event is a callback from the engine, delivered in order on Events().
type Event interface {
	isEvent()
}

// StateChanged reports a readiness transition.
type StateChanged struct {
	State State
}

// IsPlayingChanged reports that audio started or stopped advancing.
type IsPlayingChanged struct {
	Playing bool
}

// ItemTransition reports that the current item changed.
type ItemTransition struct {
	Index int
}

// Error reports a failure to prepare or play the current item.
type Error struct {
	Err error
}

func (StateChanged) isEvent()     {}
func (IsPlayingChanged) isEvent() {}
func (ItemTransition) isEvent()   {}
func (Error) isEvent()            {}

// Engine is the platform media player. Methods never block on I/O; the
// outcome of Prepare and transitions is reported through Events.
type Engine interface {
	SetItems(items []Item, start int)
	Prepare()
	Play()
	Pause()
	Stop()
	SeekTo(position time.Duration)
	SeekToItem(index int, position time.Duration)
	HasNext() bool
	HasPrevious() bool
	Next()
	Previous()
	AddItem(item Item)
	CurrentIndex() int
	ItemCount() int
	IsPlaying() bool
	Position() time.Duration
	Duration() time.Duration
	Events() <-chan Event
	Release()
}

// Verify implementations satisfy Engine at compile time.
var (
	_ Engine = (*StreamEngine)(nil)
	_ Engine = (*Mock)(nil)
)

// clampIndex returns start clamped into [0, n), or -1 when n is 0.
func clampIndex(start, n int) int {
	if n == 0 {
		return -1
	}
	return max(0, min(start, n-1))
}
