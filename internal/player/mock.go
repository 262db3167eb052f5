package player

import (
	"sync"
	"time"
)

// Mock is a deterministic test double for Engine. Prepare reports
// Buffering then Ready unless HoldBuffering is set; tests drive the rest
// through the Simulate helpers.
type Mock struct {
	mu sync.Mutex

	items    []Item
	index    int
	playing  bool
	state    State
	position time.Duration
	duration time.Duration
	released bool
	calls    []string
	seeks    []time.Duration

	holdBuffering bool

	events *eventQueue
}

// NewMock creates a new mock engine for testing.
func NewMock() *Mock {
	return &Mock{
		index:  -1,
		events: newEventQueue(),
	}
}

func (m *Mock) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *Mock) SetItems(items []Item, start int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetItems")
	m.items = append([]Item(nil), items...)
	m.index = clampIndex(start, len(items))
	m.position = 0
	m.state = StateIdle
}

func (m *Mock) Prepare() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Prepare")
	if len(m.items) == 0 {
		return
	}
	m.state = StateBuffering
	m.events.push(StateChanged{State: StateBuffering})
	if !m.holdBuffering {
		m.state = StateReady
		m.events.push(StateChanged{State: StateReady})
	}
}

func (m *Mock) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Play")
	if len(m.items) == 0 || m.playing {
		return
	}
	m.playing = true
	m.events.push(IsPlayingChanged{Playing: true})
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Pause")
	if !m.playing {
		return
	}
	m.playing = false
	m.events.push(IsPlayingChanged{Playing: false})
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Stop")
	if m.playing {
		m.playing = false
		m.events.push(IsPlayingChanged{Playing: false})
	}
	m.position = 0
	if m.state != StateIdle {
		m.state = StateIdle
		m.events.push(StateChanged{State: StateIdle})
	}
}

func (m *Mock) SeekTo(position time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SeekTo")
	m.seeks = append(m.seeks, position)
	m.position = position
}

func (m *Mock) SeekToItem(index int, position time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SeekToItem")
	if index < 0 || index >= len(m.items) {
		return
	}
	m.moveLocked(index, position)
}

func (m *Mock) moveLocked(index int, position time.Duration) {
	m.index = index
	m.position = position
	m.events.push(ItemTransition{Index: index})
}

func (m *Mock) HasNext() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index >= 0 && m.index < len(m.items)-1
}

func (m *Mock) HasPrevious() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index > 0
}

func (m *Mock) Next() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Next")
	if m.index >= 0 && m.index < len(m.items)-1 {
		m.moveLocked(m.index+1, 0)
	}
}

func (m *Mock) Previous() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Previous")
	if m.index > 0 {
		m.moveLocked(m.index-1, 0)
	}
}

func (m *Mock) AddItem(item Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("AddItem")
	m.items = append(m.items, item)
}

func (m *Mock) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

func (m *Mock) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Mock) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.duration > 0 {
		return m.duration
	}
	if m.index >= 0 && m.index < len(m.items) {
		return m.items[m.index].Duration
	}
	return 0
}

func (m *Mock) Events() <-chan Event {
	return m.events.out
}

func (m *Mock) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Release")
	m.released = true
	m.events.close()
}

// Test helpers

// SetHoldBuffering makes Prepare stop at Buffering until SimulateReady.
func (m *Mock) SetHoldBuffering(hold bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holdBuffering = hold
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Item(nil), m.items...)
}

func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Mock) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.seeks = nil
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seeks...)
}

func (m *Mock) IsReleased() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// SimulateReady reports the prepared item as ready.
func (m *Mock) SimulateReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateReady
	m.events.push(StateChanged{State: StateReady})
}

// SimulateBuffering reports a rebuffer at the current position.
func (m *Mock) SimulateBuffering() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateBuffering
	m.events.push(StateChanged{State: StateBuffering})
}

// SimulateEnded reports that the last item finished.
func (m *Mock) SimulateEnded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateEnded
	m.playing = false
	m.events.push(IsPlayingChanged{Playing: false})
	m.events.push(StateChanged{State: StateEnded})
}

// SimulateAdvance reports an automatic transition to the next item.
func (m *Mock) SimulateAdvance() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index >= 0 && m.index < len(m.items)-1 {
		m.moveLocked(m.index+1, 0)
	}
}

// SimulateError reports a playback failure.
func (m *Mock) SimulateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playing {
		m.playing = false
		m.events.push(IsPlayingChanged{Playing: false})
	}
	m.events.push(Error{Err: err})
}
