// Package playback translates a callback-driven media engine into one
// ordered, level-triggered state stream and accepts playback intents.
package playback

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/rollen/internal/player"
)

// ErrReleased is returned by intents submitted after Release.
var ErrReleased = errors.New("playback: adapter released")

const (
	defaultProgressInterval   = 500 * time.Millisecond
	defaultSeekSettle         = 100 * time.Millisecond
	defaultBackwardSeekMasked = 2 * time.Second
)

// Adapter owns the playback session. Intents and engine callbacks are
// queued and applied in order by a single reducer goroutine.
type Adapter struct {
	engine player.Engine
	log    zerolog.Logger

	progressInterval   time.Duration
	seekSettle         time.Duration
	backwardSeekMasked time.Duration
	streamURL          func(id int64) string

	// intent queue
	qmu      sync.Mutex
	queue    []func()
	released bool
	wake     chan struct{}
	done     chan struct{}
	stopped  chan struct{}

	// session is written by the reducer only; mu guards readers.
	mu      sync.RWMutex
	session Session

	subsMu sync.RWMutex
	subs   []*Subscription

	// reducer-owned
	sampler        *sampler
	samplerGen     uint64
	seekGen        uint64
	resumeTimer    *time.Timer
	activeSamplers atomic.Int32
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithProgressInterval sets the position sampling cadence.
func WithProgressInterval(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.progressInterval = d
		}
	}
}

// WithSeekSettle sets how long playback stays suspended after a masked
// backward seek.
func WithSeekSettle(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.seekSettle = d
		}
	}
}

// WithBackwardSeekMask sets the smallest backward jump that is masked by
// suspending playback.
func WithBackwardSeekMask(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.backwardSeekMasked = d
		}
	}
}

// WithStreamURL sets how a track id maps to the engine item URL.
func WithStreamURL(fn func(id int64) string) Option {
	return func(a *Adapter) { a.streamURL = fn }
}

// New creates an adapter driving engine and starts its reducer.
func New(engine player.Engine, opts ...Option) *Adapter {
	a := &Adapter{
		engine:             engine,
		log:                zerolog.Nop(),
		progressInterval:   defaultProgressInterval,
		seekSettle:         defaultSeekSettle,
		backwardSeekMasked: defaultBackwardSeekMasked,
		streamURL:          func(int64) string { return "" },
		wake:               make(chan struct{}, 1),
		done:               make(chan struct{}),
		stopped:            make(chan struct{}),
		session:            emptySession(),
	}
	for _, opt := range opts {
		opt(a)
	}
	go a.run()
	return a
}

// Subscribe creates a new update subscription.
func (a *Adapter) Subscribe() *Subscription {
	a.subsMu.Lock()
	defer a.subsMu.Unlock()
	sub := newSubscription()
	if a.isReleased() {
		sub.close()
		return sub
	}
	a.subs = append(a.subs, sub)
	return sub
}

// Snapshot returns a copy of the current session.
func (a *Adapter) Snapshot() Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.clone()
}

// Release stops the reducer, cancels background activity and releases the
// engine. It is safe to call more than once.
func (a *Adapter) Release() error {
	a.qmu.Lock()
	if a.released {
		a.qmu.Unlock()
		return nil
	}
	a.released = true
	a.queue = nil
	a.qmu.Unlock()

	close(a.done)
	<-a.stopped

	// The reducer has exited; its state is ours now.
	a.stopSampler()
	if a.resumeTimer != nil {
		a.resumeTimer.Stop()
	}
	a.engine.Release()

	a.subsMu.Lock()
	for _, sub := range a.subs {
		sub.close()
	}
	a.subs = nil
	a.subsMu.Unlock()

	a.log.Debug().Msg("playback adapter released")
	return nil
}

func (a *Adapter) isReleased() bool {
	a.qmu.Lock()
	defer a.qmu.Unlock()
	return a.released
}

// submit queues fn for the reducer. It never blocks.
func (a *Adapter) submit(fn func()) error {
	a.qmu.Lock()
	if a.released {
		a.qmu.Unlock()
		return ErrReleased
	}
	a.queue = append(a.queue, fn)
	a.qmu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
	return nil
}

func (a *Adapter) drain() []func() {
	a.qmu.Lock()
	defer a.qmu.Unlock()
	batch := a.queue
	a.queue = nil
	return batch
}

// run is the reducer: the only goroutine that touches the engine or
// mutates the session.
func (a *Adapter) run() {
	defer close(a.stopped)
	events := a.engine.Events()
	for {
		select {
		case <-a.done:
			return
		case <-a.wake:
			for _, fn := range a.drain() {
				select {
				case <-a.done:
					return
				default:
				}
				fn()
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			a.handleEngineEvent(ev)
		}
	}
}

func (a *Adapter) emit(u Update) {
	a.subsMu.RLock()
	defer a.subsMu.RUnlock()
	for _, sub := range a.subs {
		sub.send(u)
	}
}

// mutate applies fn to the session under the write lock.
func (a *Adapter) mutate(fn func(s *Session)) {
	a.mu.Lock()
	fn(&a.session)
	a.mu.Unlock()
}

// state returns the session without copying tracks. Reducer only.
func (a *Adapter) state() Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

func (a *Adapter) emitCurrent() {
	s := a.state()
	t, ok := s.Current()
	if !ok {
		return
	}
	a.emit(Current{Index: s.Index, TrackID: t.ID, Title: t.Title, Artist: t.Artist})
}

func (a *Adapter) toItem(t Track) player.Item {
	return player.Item{
		ID:       t.ID,
		URL:      a.streamURL(t.ID),
		Title:    t.Title,
		Artist:   t.Artist,
		Duration: t.Duration,
	}
}
