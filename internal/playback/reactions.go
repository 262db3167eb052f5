package playback

import "github.com/llehouerou/rollen/internal/player"

// handleEngineEvent folds one engine callback into the session and
// republishes it. Reducer only.
func (a *Adapter) handleEngineEvent(ev player.Event) {
	switch e := ev.(type) {
	case player.StateChanged:
		a.handleStateChanged(e.State)

	case player.IsPlayingChanged:
		a.mutate(func(s *Session) { s.Playing = e.Playing })
		a.emit(Playing{IsPlaying: e.Playing})
		a.emitCurrent()
		if e.Playing {
			a.startSampler()
		} else {
			a.stopSampler()
		}

	case player.ItemTransition:
		a.mutate(func(s *Session) {
			if e.Index < 0 || e.Index >= len(s.Tracks) {
				return
			}
			s.Index = e.Index
			s.Position = 0
			s.Duration = s.Tracks[e.Index].Duration
		})
		a.emitCurrent()

	case player.Error:
		a.stopSampler()
		a.mutate(func(s *Session) {
			s.Phase = PhaseFailed
			s.Playing = false
			s.Err = e.Err
		})
		s := a.state()
		evt := a.log.Error().Err(e.Err).Int("index", s.Index)
		if t, ok := s.Current(); ok {
			evt = evt.Int64("track_id", t.ID)
		}
		evt.Msg("playback failed")
		a.emit(Failed{Err: e.Err})
	}
}

func (a *Adapter) handleStateChanged(state player.State) {
	switch state {
	case player.StateBuffering:
		pos := a.engine.Position()
		a.mutate(func(s *Session) {
			s.Phase = PhaseBuffering
			s.Position = pos
		})
		a.emit(Buffering{Position: pos})

	case player.StateReady:
		d := a.duration()
		a.mutate(func(s *Session) {
			s.Phase = PhaseReady
			s.Duration = d
			s.Err = nil
		})
		a.emit(Ready{Duration: d})

	case player.StateEnded:
		a.stopSampler()
		a.mutate(func(s *Session) {
			s.Phase = PhaseEnded
			s.Playing = false
		})
		a.emit(Ended{})
		a.emit(Playing{IsPlaying: false})

	case player.StateIdle:
		a.mutate(func(s *Session) {
			// An engine reset after a failure keeps the failure visible.
			if s.Phase != PhaseFailed {
				s.Phase = PhaseIdle
			}
		})
		a.emit(Idle{})
	}
}
