package player

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog"
)

const seekUnmuteDelay = 50 * time.Millisecond

var (
	speakerMu   sync.Mutex
	speakerRate beep.SampleRate
)

// ensureSpeaker initializes the speaker on first use at the first track's
// rate and returns the rate every later track is resampled to.
func ensureSpeaker(rate beep.SampleRate) (beep.SampleRate, error) {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if speakerRate != 0 {
		return speakerRate, nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return 0, fmt.Errorf("init speaker: %w", err)
	}
	speakerRate = rate
	return rate, nil
}

type loadedTrack struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
}

// StreamEngine plays items by streaming their URL over HTTP to the local
// audio device. Items are fetched with range requests so seeking does not
// download the whole file.
type StreamEngine struct {
	client *http.Client
	log    zerolog.Logger
	events *eventQueue

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	items      []Item
	index      int
	state      State
	playing    bool
	gen        uint64
	loadCancel context.CancelFunc
	track      *loadedTrack
	released   bool
}

// NewStreamEngine creates an engine fetching audio with client, which
// must carry any authentication the stream endpoint requires.
func NewStreamEngine(client *http.Client, log zerolog.Logger) *StreamEngine {
	ctx, cancel := context.WithCancel(context.Background())
	return &StreamEngine{
		client: client,
		log:    log,
		events: newEventQueue(),
		ctx:    ctx,
		cancel: cancel,
		index:  -1,
	}
}

func (e *StreamEngine) SetItems(items []Item, start int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unloadLocked()
	e.items = append([]Item(nil), items...)
	e.index = clampIndex(start, len(items))
	e.state = StateIdle
}

func (e *StreamEngine) Prepare() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released || e.index < 0 {
		return
	}
	e.loadLocked(e.index, 0)
}

func (e *StreamEngine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released || len(e.items) == 0 {
		return
	}
	if !e.playing {
		e.playing = true
		e.events.push(IsPlayingChanged{Playing: true})
	}
	switch {
	case e.track != nil:
		e.setPausedLocked(false)
	case e.state == StateIdle || e.state == StateEnded:
		if e.index < 0 {
			e.index = 0
		}
		e.loadLocked(e.index, 0)
	}
	// While buffering, the track starts unpaused once loaded.
}

func (e *StreamEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing {
		e.playing = false
		e.events.push(IsPlayingChanged{Playing: false})
	}
	if e.track != nil {
		e.setPausedLocked(true)
	}
}

func (e *StreamEngine) setPausedLocked(paused bool) {
	speaker.Lock()
	e.track.ctrl.Paused = paused
	speaker.Unlock()
}

func (e *StreamEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unloadLocked()
	if e.playing {
		e.playing = false
		e.events.push(IsPlayingChanged{Playing: false})
	}
	if e.state != StateIdle {
		e.state = StateIdle
		e.events.push(StateChanged{State: StateIdle})
	}
}

// SeekTo moves within the current item. Output is muted briefly to avoid
// a click from the discontinuity.
func (e *StreamEngine) SeekTo(position time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.track
	if t == nil {
		return
	}

	speaker.Lock()
	n := max(0, min(t.format.SampleRate.N(position), t.streamer.Len()))
	t.volume.Silent = true
	err := t.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		e.log.Warn().Err(err).Dur("position", position).Msg("seek failed")
	}

	time.AfterFunc(seekUnmuteDelay, func() {
		speaker.Lock()
		t.volume.Silent = false
		speaker.Unlock()
	})
}

func (e *StreamEngine) SeekToItem(index int, position time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released || index < 0 || index >= len(e.items) {
		return
	}
	e.index = index
	e.events.push(ItemTransition{Index: index})
	e.loadLocked(index, position)
}

func (e *StreamEngine) HasNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index >= 0 && e.index < len(e.items)-1
}

func (e *StreamEngine) HasPrevious() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index > 0
}

func (e *StreamEngine) Next() {
	if e.HasNext() {
		e.SeekToItem(e.CurrentIndex()+1, 0)
	}
}

func (e *StreamEngine) Previous() {
	if e.HasPrevious() {
		e.SeekToItem(e.CurrentIndex()-1, 0)
	}
}

func (e *StreamEngine) AddItem(item Item) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = append(e.items, item)
	if e.index < 0 {
		e.index = 0
	}
}

func (e *StreamEngine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

func (e *StreamEngine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

func (e *StreamEngine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *StreamEngine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.track == nil {
		return 0
	}
	speaker.Lock()
	pos := e.track.format.SampleRate.D(e.track.streamer.Position())
	speaker.Unlock()
	return pos
}

func (e *StreamEngine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.track != nil {
		if d := e.track.format.SampleRate.D(e.track.streamer.Len()); d > 0 {
			return d
		}
	}
	if e.index >= 0 && e.index < len(e.items) {
		return e.items[e.index].Duration
	}
	return 0
}

func (e *StreamEngine) Events() <-chan Event {
	return e.events.out
}

func (e *StreamEngine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return
	}
	e.released = true
	e.unloadLocked()
	e.cancel()
	e.events.close()
}

// loadLocked starts fetching items[index] in the background. Results from
// superseded loads are discarded by generation.
func (e *StreamEngine) loadLocked(index int, start time.Duration) {
	e.unloadLocked()
	ctx, cancel := context.WithCancel(e.ctx)
	e.loadCancel = cancel
	e.state = StateBuffering
	e.events.push(StateChanged{State: StateBuffering})

	go e.load(ctx, e.gen, e.items[index], start)
}

// unloadLocked stops output, closes the current stream and invalidates any
// in-flight load.
func (e *StreamEngine) unloadLocked() {
	e.gen++
	if e.loadCancel != nil {
		e.loadCancel()
		e.loadCancel = nil
	}
	if e.track != nil {
		speaker.Clear()
		if err := e.track.streamer.Close(); err != nil {
			e.log.Debug().Err(err).Msg("close stream")
		}
		e.track = nil
	}
}

func (e *StreamEngine) load(ctx context.Context, gen uint64, item Item, start time.Duration) {
	streamer, format, err := e.open(ctx, item)
	if err != nil {
		e.fail(gen, fmt.Errorf("load %q: %w", item.Title, err))
		return
	}

	if start > 0 {
		if err := streamer.Seek(format.SampleRate.N(start)); err != nil {
			e.log.Warn().Err(err).Int64("track_id", item.ID).Msg("seek to start position")
		}
	}

	rate, err := ensureSpeaker(format.SampleRate)
	if err != nil {
		streamer.Close()
		e.fail(gen, err)
		return
	}
	var out beep.Streamer = streamer
	if format.SampleRate != rate {
		out = beep.Resample(4, format.SampleRate, rate, streamer)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.released {
		streamer.Close()
		return
	}

	ctrl := &beep.Ctrl{Streamer: out, Paused: !e.playing}
	volume := &effects.Volume{Streamer: ctrl, Base: 2}
	e.track = &loadedTrack{streamer: streamer, format: format, ctrl: ctrl, volume: volume}
	e.state = StateReady
	e.events.push(StateChanged{State: StateReady})

	e.log.Debug().
		Int64("track_id", item.ID).
		Int("sample_rate", int(format.SampleRate)).
		Msg("stream ready")

	speaker.Play(beep.Seq(volume, beep.Callback(func() {
		// Runs with the speaker locked; finish on another goroutine.
		go e.finished(gen)
	})))
}

func (e *StreamEngine) open(ctx context.Context, item Item) (beep.StreamSeekCloser, beep.Format, error) {
	stream, err := openHTTPStream(ctx, e.client, item.URL)
	if err != nil {
		return nil, beep.Format{}, err
	}
	format, err := detectFormat(stream.ContentType(), stream)
	if err != nil {
		stream.Close()
		return nil, beep.Format{}, err
	}
	streamer, beepFormat, err := decode(format, stream)
	if err != nil {
		stream.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", format, err)
	}
	return streamer, beepFormat, nil
}

func (e *StreamEngine) fail(gen uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.released {
		return
	}
	e.failLocked(err)
}

func (e *StreamEngine) failLocked(err error) {
	e.log.Error().Err(err).Msg("playback failed")
	e.unloadLocked()
	if e.playing {
		e.playing = false
		e.events.push(IsPlayingChanged{Playing: false})
	}
	e.state = StateIdle
	e.events.push(Error{Err: err})
}

// endAction is what the engine does once the current item stops producing
// samples.
type endAction int

const (
	endFail endAction = iota
	endAdvance
	endSequence
)

// afterItem decides how playback continues after item index of count has
// drained. A stream error wins over advancing.
func afterItem(index, count int, streamErr error) endAction {
	switch {
	case streamErr != nil:
		return endFail
	case index >= 0 && index < count-1:
		return endAdvance
	default:
		return endSequence
	}
}

// finished handles the end of the current item: advance if possible,
// otherwise report Ended.
func (e *StreamEngine) finished(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.released {
		return
	}

	var streamErr error
	if t := e.track; t != nil {
		streamErr = t.streamer.Err()
	}

	switch afterItem(e.index, len(e.items), streamErr) {
	case endFail:
		e.failLocked(fmt.Errorf("stream: %w", streamErr))
	case endAdvance:
		e.index++
		e.events.push(ItemTransition{Index: e.index})
		e.loadLocked(e.index, 0)
	case endSequence:
		e.unloadLocked()
		e.playing = false
		e.state = StateEnded
		e.events.push(IsPlayingChanged{Playing: false})
		e.events.push(StateChanged{State: StateEnded})
	}
}
