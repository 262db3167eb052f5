//go:build !windows

// Package stderr captures output that native audio libraries (ALSA, oto)
// write straight to file descriptor 2, so it can be routed through the
// logger instead of interleaving with command output.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

const bufferedLines = 100

// Capture holds a redirected stderr.
type Capture struct {
	// Original writes to the stderr that was in place before Start.
	Original *os.File

	origFD    int
	pipeRead  *os.File
	pipeWrite *os.File
	lines     chan string
	stopOnce  sync.Once
}

// Start redirects fd 2 into a pipe. The program can carry on without
// capture when it fails.
func Start() (*Capture, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	fd := int(os.Stderr.Fd())
	orig, err := unix.Dup(fd)
	if err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	if err := unix.Dup2(int(w.Fd()), fd); err != nil {
		_ = unix.Close(orig)
		r.Close()
		w.Close()
		return nil, err
	}

	c := &Capture{
		Original:  os.NewFile(uintptr(orig), "stderr"),
		origFD:    orig,
		pipeRead:  r,
		pipeWrite: w,
		lines:     make(chan string, bufferedLines),
	}
	go c.scan()
	return c, nil
}

func (c *Capture) scan() {
	defer close(c.lines)
	scanner := bufio.NewScanner(c.pipeRead)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case c.lines <- line:
		default:
			// full, drop
		}
	}
}

// Lines streams captured lines until Stop.
func (c *Capture) Lines() <-chan string {
	return c.lines
}

// Stop restores the original stderr.
func (c *Capture) Stop() {
	c.stopOnce.Do(func() {
		_ = unix.Dup2(c.origFD, int(os.Stderr.Fd()))
		c.pipeWrite.Close()
		c.pipeRead.Close()
		c.Original.Close()
	})
}

// Forward logs captured lines at warn level until the capture stops.
func Forward(lines <-chan string, log zerolog.Logger) {
	if lines == nil {
		return
	}
	go func() {
		for line := range lines {
			log.Warn().Str("source", "native").Msg(line)
		}
	}()
}
