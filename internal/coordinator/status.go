// Package coordinator holds the view-state coordinators: long-lived
// objects that call the gateway, drive the playback adapter and publish
// plain state values for a front end to render.
package coordinator

import "errors"

// ErrNotFound is returned when a track or playlist id is not known.
var ErrNotFound = errors.New("not found")

// Status is the load state of a coordinator.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusLoading:
		return "Loading"
	case StatusReady:
		return "Ready"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}
