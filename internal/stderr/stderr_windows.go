//go:build windows

// Package stderr is a no-op on Windows, whose audio backends do not write
// to fd 2.
package stderr

import (
	"errors"
	"os"

	"github.com/rs/zerolog"
)

// Capture is unused on Windows.
type Capture struct {
	Original *os.File
}

// Start reports that capture is unsupported.
func Start() (*Capture, error) {
	return nil, errors.New("stderr capture is not supported on windows")
}

// Lines returns nil.
func (c *Capture) Lines() <-chan string { return nil }

// Stop is a no-op.
func (c *Capture) Stop() {}

// Forward is a no-op.
func Forward(_ <-chan string, _ zerolog.Logger) {}
