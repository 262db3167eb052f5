package nowplaying

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/rollen/internal/playback"
)

// Hub tracks connected viewers and fans out state messages.
type Hub struct {
	log zerolog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
}

// NewHub creates a Hub whose initial state is "nothing playing".
func NewHub(log zerolog.Logger) *Hub {
	h := &Hub{
		log:     log,
		clients: make(map[*client]struct{}),
	}
	h.last, _ = json.Marshal(newState(playback.Session{Index: -1}, time.Now()))
	return h
}

// Broadcast sends st to every viewer and keeps it for new ones.
func (h *Hub) Broadcast(st State) {
	msg, err := json.Marshal(st)
	if err != nil {
		h.log.Warn().Err(err).Msg("encode now playing state")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = msg
	for c := range h.clients {
		h.sendLocked(c, msg)
	}
}

// sendLocked queues msg for c, dropping c if it cannot keep up.
func (h *Hub) sendLocked(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.log.Debug().Str("remote", c.remote).Msg("dropping slow viewer")
		delete(h.clients, c)
		close(c.send)
	}
}

// register adds c and queues the last known state in one step.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.sendLocked(c, h.last)
	h.log.Debug().Str("remote", c.remote).Int("viewers", len(h.clients)).Msg("viewer connected")
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.log.Debug().Str("remote", c.remote).Msg("viewer disconnected")
	}
}

// Count returns the number of connected viewers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every viewer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Publish broadcasts the session after every playback update until ctx is
// done or the subscription ends.
func (h *Hub) Publish(ctx context.Context, sub *playback.Subscription, snapshot func() playback.Session) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.Done:
			return nil
		case <-sub.Updates:
			h.Broadcast(newState(snapshot(), time.Now()))
		}
	}
}
