package playback

import (
	"slices"
	"time"

	"github.com/llehouerou/rollen/internal/player"
)

// LoadSequence replaces the session with tracks, cursor at start, and
// prepares it without starting playback. Loading the same ids at the same
// start index again is a no-op. An empty slice returns to Idle.
func (a *Adapter) LoadSequence(tracks []Track, start int) error {
	tracks = slices.Clone(tracks)
	return a.submit(func() { a.loadSequence(tracks, start) })
}

// PlayPause toggles playback. Ignored when nothing is loaded.
func (a *Adapter) PlayPause() error {
	return a.submit(a.playPause)
}

// Play starts or resumes playback. Ignored when nothing is loaded.
func (a *Adapter) Play() error {
	return a.submit(a.play)
}

// Pause suspends playback.
func (a *Adapter) Pause() error {
	return a.submit(a.pause)
}

// SeekTo moves to position, clamped into the current track.
func (a *Adapter) SeekTo(position time.Duration) error {
	return a.submit(func() { a.seekTo(position) })
}

// SeekToFraction moves to fraction f of the current track, f clamped into
// [0, 1].
func (a *Adapter) SeekToFraction(f float64) error {
	return a.submit(func() {
		f = max(0, min(f, 1))
		a.seekTo(time.Duration(f * float64(a.duration())))
	})
}

// Next moves to the following track if there is one.
func (a *Adapter) Next() error {
	return a.submit(a.next)
}

// Previous moves to the preceding track if there is one.
func (a *Adapter) Previous() error {
	return a.submit(a.previous)
}

// JumpTo selects index within the sequence and plays it.
func (a *Adapter) JumpTo(index int) error {
	return a.submit(func() { a.jumpTo(index) })
}

// PlayTrack plays t: toggling if it is already current, jumping to it if
// it is in the sequence, and appending it otherwise. With nothing loaded
// it becomes a one-track sequence.
func (a *Adapter) PlayTrack(t Track) error {
	return a.submit(func() { a.playTrack(t) })
}

// Stop halts playback and returns to Idle. The sequence is kept so Play
// can restart it.
func (a *Adapter) Stop() error {
	return a.submit(a.stop)
}

func (a *Adapter) loadSequence(tracks []Track, start int) {
	a.cancelPendingResume()

	if len(tracks) == 0 {
		a.stopSampler()
		a.engine.Stop()
		a.engine.SetItems(nil, 0)
		a.mutate(func(s *Session) { *s = emptySession() })
		a.emit(Idle{})
		return
	}

	start = max(0, min(start, len(tracks)-1))
	cur := a.state()
	if cur.Index == start && sameIDs(cur.Tracks, tracks) {
		a.log.Debug().Int("start", start).Msg("sequence already loaded")
		return
	}

	a.stopSampler()
	a.engine.Pause()

	items := make([]player.Item, len(tracks))
	for i, t := range tracks {
		items[i] = a.toItem(t)
	}
	a.engine.SetItems(items, start)

	a.mutate(func(s *Session) {
		*s = Session{
			Tracks:   tracks,
			Index:    start,
			Phase:    PhaseBuffering,
			Duration: tracks[start].Duration,
		}
	})
	a.engine.Prepare()

	a.log.Debug().Int("tracks", len(tracks)).Int("start", start).Msg("sequence loaded")
}

func sameIDs(a, b []Track) bool {
	return slices.EqualFunc(a, b, func(x, y Track) bool { return x.ID == y.ID })
}

func (a *Adapter) playPause() {
	if !a.state().IsLoaded() {
		return
	}
	if a.engine.IsPlaying() {
		a.pause()
		return
	}
	a.play()
}

func (a *Adapter) play() {
	s := a.state()
	if !s.IsLoaded() {
		return
	}
	a.cancelPendingResume()
	if s.Phase == PhaseFailed {
		a.mutate(func(s *Session) { s.Phase = PhaseBuffering; s.Err = nil })
		a.engine.Prepare()
	}
	a.engine.Play()
}

func (a *Adapter) pause() {
	a.cancelPendingResume()
	a.engine.Pause()
}

func (a *Adapter) duration() time.Duration {
	if d := a.engine.Duration(); d > 0 {
		return d
	}
	return a.state().Duration
}

func (a *Adapter) seekTo(position time.Duration) {
	s := a.state()
	if !s.IsLoaded() {
		return
	}

	position = max(0, position)
	if d := a.duration(); d > 0 {
		position = min(position, d)
	}

	current := a.engine.Position()
	masked := a.engine.IsPlaying() && current-position >= a.backwardSeekMasked

	if masked {
		a.cancelPendingResume()
		a.engine.Pause()
		a.engine.SeekTo(position)
		a.scheduleResume()
	} else {
		a.engine.SeekTo(position)
	}

	a.mutate(func(s *Session) { s.Position = position })
	a.emit(Progress{Position: position})
}

// scheduleResume plays again after the settle delay unless another
// transport intent arrives first.
func (a *Adapter) scheduleResume() {
	gen := a.seekGen
	a.resumeTimer = time.AfterFunc(a.seekSettle, func() {
		_ = a.submit(func() {
			if gen == a.seekGen {
				a.resumeTimer = nil
				a.engine.Play()
			}
		})
	})
}

func (a *Adapter) cancelPendingResume() {
	a.seekGen++
	if a.resumeTimer != nil {
		a.resumeTimer.Stop()
		a.resumeTimer = nil
	}
}

func (a *Adapter) next() {
	if !a.engine.HasNext() {
		return
	}
	a.engine.Next()
	a.moveCursor(a.engine.CurrentIndex())
}

func (a *Adapter) previous() {
	if !a.engine.HasPrevious() {
		return
	}
	a.engine.Previous()
	a.moveCursor(a.engine.CurrentIndex())
}

func (a *Adapter) jumpTo(index int) {
	s := a.state()
	if index < 0 || index >= len(s.Tracks) {
		return
	}
	a.cancelPendingResume()
	a.engine.SeekToItem(index, 0)
	a.moveCursor(index)
	a.engine.Play()
}

// moveCursor points the session at index and announces it. A failed
// session leaves PhaseFailed because a new source is being prepared.
func (a *Adapter) moveCursor(index int) {
	a.mutate(func(s *Session) {
		if index < 0 || index >= len(s.Tracks) {
			return
		}
		s.Index = index
		s.Position = 0
		s.Duration = s.Tracks[index].Duration
		if s.Phase == PhaseFailed || s.Phase == PhaseEnded {
			s.Phase = PhaseBuffering
			s.Err = nil
		}
	})
	a.emitCurrent()
}

func (a *Adapter) playTrack(t Track) {
	s := a.state()
	if !s.IsLoaded() {
		a.loadSequence([]Track{t}, 0)
		a.engine.Play()
		return
	}

	if cur, ok := s.Current(); ok && cur.ID == t.ID {
		a.playPause()
		return
	}

	if i := slices.IndexFunc(s.Tracks, func(x Track) bool { return x.ID == t.ID }); i >= 0 {
		a.jumpTo(i)
		return
	}

	a.engine.AddItem(a.toItem(t))
	a.mutate(func(s *Session) { s.Tracks = append(s.Tracks, t) })
	a.jumpTo(len(s.Tracks))
}

func (a *Adapter) stop() {
	a.cancelPendingResume()
	a.stopSampler()
	a.engine.Stop()
	a.mutate(func(s *Session) {
		s.Phase = PhaseIdle
		s.Playing = false
		s.Position = 0
		s.Err = nil
	})
	a.emit(Idle{})
}
