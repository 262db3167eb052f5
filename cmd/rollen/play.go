package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/llehouerou/rollen/internal/coordinator"
	"github.com/llehouerou/rollen/internal/errmsg"
	"github.com/llehouerou/rollen/internal/logging"
	"github.com/llehouerou/rollen/internal/mpris"
	"github.com/llehouerou/rollen/internal/notify"
	"github.com/llehouerou/rollen/internal/nowplaying"
	"github.com/llehouerou/rollen/internal/playback"
	"github.com/llehouerou/rollen/internal/player"
)

var errNothingToResume = errors.New("no saved session to resume")

// playerSession wires the playback adapter, the audio coordinator and the
// media session integrations for the lifetime of a playback command.
type playerSession struct {
	app     *app
	adapter *playback.Adapter
	audio   *coordinator.Audio
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	closers []func()
}

func startPlayer(ctx context.Context, a *app) (*playerSession, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	pc := a.cfg.GetPlaybackConfig()

	engine := player.NewStreamEngine(a.client.StreamClient(), logging.Component(a.log, "engine"))
	adapter := playback.New(engine,
		playback.WithLogger(logging.Component(a.log, "playback")),
		playback.WithProgressInterval(pc.ProgressInterval),
		playback.WithSeekSettle(pc.SeekSettle),
		playback.WithBackwardSeekMask(pc.BackwardSeekMasked),
		playback.WithStreamURL(a.client.StreamURL),
	)
	audio := coordinator.NewAudio(a.client, a.creds, adapter,
		coordinator.WithAudioLogger(logging.Component(a.log, "audio")),
		coordinator.WithSessionStore(a.state, *pc.ResumeLastSession),
	)

	s := &playerSession{app: a, adapter: adapter, audio: audio, cancel: cancel}
	s.wg.Go(func() { _ = audio.Run(ctx) })
	s.startMediaSession(ctx)
	s.startNowPlaying(ctx)
	return s, ctx
}

func (s *playerSession) startMediaSession(ctx context.Context) {
	a := s.app
	if !a.cfg.MPRISEnabled() && !a.cfg.NotificationsEnabled() {
		return
	}
	covers, err := mpris.NewCoverCache("")
	if err != nil {
		a.log.Warn().Err(err).Msg("cover cache unavailable")
	}

	if a.cfg.MPRISEnabled() {
		m, err := mpris.New(s.adapter, covers, logging.Component(a.log, "mpris"))
		if err != nil {
			a.log.Warn().Err(err).Msg("mpris unavailable")
		} else {
			s.closers = append(s.closers, func() { _ = m.Close() })
		}
	}

	if a.cfg.NotificationsEnabled() {
		n, err := notify.New()
		if err != nil {
			a.log.Warn().Err(err).Msg("notifications unavailable")
			return
		}
		var src notify.CoverSource
		if covers != nil {
			src = covers
		}
		announcer := notify.NewAnnouncer(n, src, logging.Component(a.log, "notify"))
		sub := s.adapter.Subscribe()
		s.wg.Go(func() { _ = announcer.Run(ctx, sub, s.adapter.Snapshot) })
	}
}

func (s *playerSession) startNowPlaying(ctx context.Context) {
	a := s.app
	if !a.cfg.HasNowPlaying() {
		return
	}
	log := logging.Component(a.log, "nowplaying")
	hub := nowplaying.NewHub(log)
	srv := nowplaying.NewServer(a.cfg.NowPlaying.Listen, a.cfg.NowPlaying.AllowedOrigins, hub, log)
	sub := s.adapter.Subscribe()
	s.wg.Go(func() { _ = hub.Publish(ctx, sub, s.adapter.Snapshot) })
	s.wg.Go(func() {
		if err := srv.Run(ctx); err != nil {
			log.Error().Err(err).Msg("now playing server")
		}
	})
}

// Close stops the integrations, saves the session and releases the audio
// device.
func (s *playerSession) Close() {
	s.cancel()
	s.wg.Wait()
	for _, c := range s.closers {
		c()
	}
	if err := s.adapter.Release(); err != nil {
		s.app.log.Debug().Err(err).Msg("release playback")
	}
}

// waitCatalog blocks until the audio coordinator has loaded the catalog.
func (s *playerSession) waitCatalog(ctx context.Context) error {
	states, cancel := s.audio.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st := <-states:
			switch st.Status {
			case coordinator.StatusReady:
				return nil
			case coordinator.StatusError:
				return errors.New(st.Err)
			}
			// a rejected token logs out and resets the state
			if !s.app.creds.IsLoggedIn() {
				return errNotLoggedIn
			}
		}
	}
}

// follow prints track changes from sub until the sequence ends, playback
// fails or ctx is done. sub must be taken before playback is started so
// an early failure is not missed.
func follow(ctx context.Context, sub *playback.Subscription, snapshot func() playback.Session, out io.Writer) error {
	switch snap := snapshot(); snap.Phase {
	case playback.PhaseFailed:
		return failure(errmsg.OpPlaybackStart, snap.Err)
	case playback.PhaseEnded:
		fmt.Fprintln(out, "Finished")
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done:
			return nil
		case u := <-sub.Updates:
			switch u := u.(type) {
			case playback.Current:
				fmt.Fprintf(out, "Playing %s - %s\n", u.Title, u.Artist)
			case playback.Ended:
				fmt.Fprintln(out, "Finished")
				return nil
			case playback.Failed:
				return failure(errmsg.OpPlaybackStart, u.Err)
			}
		}
	}
}

func runPlay(ctx context.Context, a *app, args []string, out io.Writer) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withPlayer(ctx, a, out, func(s *playerSession) error {
		return s.audio.PlayTrack(id)
	})
}

func runPlayPlaylist(ctx context.Context, a *app, args []string, out io.Writer) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	return withPlayer(ctx, a, out, func(s *playerSession) error {
		if len(ids) > 1 {
			return s.audio.PlayPlaylistTrack(ctx, ids[1], ids[0])
		}
		return s.audio.PlayPlaylist(ctx, ids[0])
	})
}

func runResume(ctx context.Context, a *app, _ []string, out io.Writer) error {
	saved, err := a.state.GetSession()
	if err != nil {
		return err
	}
	if saved.CurrentIndex < 0 || len(saved.Tracks) == 0 {
		return errNothingToResume
	}
	if !*a.cfg.GetPlaybackConfig().ResumeLastSession {
		return errors.New("resuming is disabled (playback.resume_last_session)")
	}
	return withPlayer(ctx, a, out, func(s *playerSession) error {
		if err := s.waitLoaded(ctx); err != nil {
			return err
		}
		return s.adapter.Play()
	})
}

// waitLoaded blocks until the restored sequence is loaded in the adapter.
func (s *playerSession) waitLoaded(ctx context.Context) error {
	states, cancel := s.audio.Subscribe()
	defer cancel()
	for !s.adapter.Snapshot().IsLoaded() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st := <-states:
			if st.Status == coordinator.StatusError {
				return errors.New(st.Err)
			}
		}
	}
	return nil
}

func withPlayer(ctx context.Context, a *app, out io.Writer, start func(*playerSession) error) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	s, ctx := startPlayer(ctx, a)
	defer s.Close()

	if err := s.waitCatalog(ctx); err != nil {
		return err
	}
	sub := s.adapter.Subscribe()
	if err := start(s); err != nil {
		if errors.Is(err, coordinator.ErrNotFound) {
			return err
		}
		if msg := s.audio.State().Err; msg != "" {
			return errors.New(msg)
		}
		return failure(errmsg.OpPlaybackStart, err)
	}
	return follow(ctx, sub, s.adapter.Snapshot, out)
}
