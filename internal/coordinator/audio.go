package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/rs/zerolog"

	"github.com/llehouerou/rollen/internal/errmsg"
	"github.com/llehouerou/rollen/internal/gateway"
	"github.com/llehouerou/rollen/internal/playback"
	"github.com/llehouerou/rollen/internal/state"
)

// LikedPlaylistID is the synthetic playlist built from the liked tracks.
const LikedPlaylistID int64 = 0

var errStale = errors.New("catalog load superseded by logout")

const (
	likedTitle  = "Liked Songs"
	likedAuthor = "You"
)

var (
	noTrack    = gateway.Track{ID: -1, Title: "No song selected", Author: "Unknown"}
	noPlaylist = gateway.Playlist{ID: -1, Title: "No playlist selected", Author: "Unknown"}
)

// AudioState is everything the player screens render.
type AudioState struct {
	Status Status
	Err    string

	Tracks    []gateway.Track
	Liked     []gateway.Track
	Playlists []gateway.PlaylistSummary // Liked Songs first

	Selected gateway.Playlist
	Current  gateway.Track

	Playing        bool
	Duration       time.Duration
	Position       time.Duration
	Progress       float64 // percent of Duration
	ProgressString string  // mm:ss
}

func (s AudioState) clone() AudioState {
	s.Tracks = slices.Clone(s.Tracks)
	s.Liked = slices.Clone(s.Liked)
	s.Playlists = slices.Clone(s.Playlists)
	s.Selected.Tracks = slices.Clone(s.Selected.Tracks)
	return s
}

func initialAudioState() AudioState {
	return AudioState{
		Selected:       noPlaylist,
		Current:        noTrack,
		ProgressString: formatPosition(0),
	}
}

// AudioOption configures an Audio coordinator.
type AudioOption func(*Audio)

// WithAudioLogger sets the logger.
func WithAudioLogger(l zerolog.Logger) AudioOption {
	return func(a *Audio) { a.log = l }
}

// WithSessionStore persists the playback sequence. When resume is true the
// saved sequence is loaded (paused) after login.
func WithSessionStore(s SessionStore, resume bool) AudioOption {
	return func(a *Audio) {
		a.sessions = s
		a.resume = resume
	}
}

// Audio folds the catalog, the login signal and the playback stream into
// one AudioState.
type Audio struct {
	catalog  Catalog
	creds    Credentials
	player   Player
	sessions SessionStore
	resume   bool
	log      zerolog.Logger
	feed     *Feed[AudioState]

	mu          sync.Mutex
	source      int64 // playlist the loaded sequence came from
	pendingSeek time.Duration
	loggedIn    bool
	// generation changes on every logout; catalog results fetched under
	// an older generation are dropped.
	generation uint64
	cancelLoad context.CancelFunc
}

// NewAudio creates an Audio coordinator. Call Run to start reacting to
// login and playback changes.
func NewAudio(catalog Catalog, creds Credentials, player Player, opts ...AudioOption) *Audio {
	a := &Audio{
		catalog: catalog,
		creds:   creds,
		player:  player,
		log:     zerolog.Nop(),
		feed:    newFeed(initialAudioState(), AudioState.clone),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the current state.
func (a *Audio) State() AudioState {
	return a.feed.Get()
}

// Subscribe streams state changes.
func (a *Audio) Subscribe() (<-chan AudioState, func()) {
	return a.feed.Subscribe()
}

// Run reacts to login changes and playback updates until ctx is done or
// the player is released.
func (a *Audio) Run(ctx context.Context) error {
	watch := a.creds.Watch()
	defer watch.Close()
	sub := a.player.Subscribe()

	for {
		select {
		case <-ctx.Done():
			a.saveSession()
			return ctx.Err()
		case loggedIn, ok := <-watch.C:
			if !ok {
				return nil
			}
			if loggedIn {
				loadCtx, gen := a.login(ctx)
				go a.load(loadCtx, gen)
			} else {
				a.reset()
			}
		case u := <-sub.Updates:
			a.apply(u)
		case <-sub.Done:
			return playback.ErrReleased
		}
	}
}

// login marks the coordinator logged in and returns a context that the
// next logout cancels.
func (a *Audio) login(ctx context.Context) (context.Context, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancelLoad != nil {
		a.cancelLoad()
	}
	a.loggedIn = true
	loadCtx, cancel := context.WithCancel(ctx)
	a.cancelLoad = cancel
	return loadCtx, a.generation
}

func (a *Audio) currentGeneration() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

func (a *Audio) load(ctx context.Context, gen uint64) {
	if err := a.refresh(ctx, gen); err != nil {
		return
	}
	a.restoreSession(gen)
}

// Refresh reloads tracks, playlists and liked tracks. Results that arrive
// after a logout are discarded.
func (a *Audio) Refresh(ctx context.Context) error {
	return a.refresh(ctx, a.currentGeneration())
}

func (a *Audio) refresh(ctx context.Context, gen uint64) error {
	tracks, err := a.catalog.Tracks(ctx)
	if err != nil {
		return a.refreshFailed(gen, errmsg.OpCatalogLoad, err)
	}
	playlists, err := a.catalog.Playlists(ctx)
	if err != nil {
		return a.refreshFailed(gen, errmsg.OpPlaylistLoad, err)
	}
	liked, err := a.catalog.LikedTracks(ctx)
	if err != nil {
		return a.refreshFailed(gen, errmsg.OpCatalogLoad, err)
	}

	// the generation check and the write share the lock so a logout
	// cannot slip in between
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.generation != gen {
		return errStale
	}
	a.feed.update(func(s *AudioState) {
		s.Tracks = tracks
		s.Liked = liked
		s.Playlists = append([]gateway.PlaylistSummary{likedPlaylist(nil).Summary()}, playlists...)
		s.Status = StatusReady
		s.Err = ""
		if t, ok := findTrack(s.Current.ID, tracks); ok {
			s.Current = t
		}
	})
	a.log.Debug().
		Int("tracks", len(tracks)).
		Int("playlists", len(playlists)).
		Int("liked", len(liked)).
		Msg("catalog loaded")
	return nil
}

func (a *Audio) refreshFailed(gen uint64, op errmsg.Op, err error) error {
	if a.currentGeneration() != gen {
		return errStale
	}
	a.fail(op, err)
	return err
}

// reset forgets everything tied to the logged-out account.
func (a *Audio) reset() {
	a.mu.Lock()
	was := a.loggedIn
	a.loggedIn = false
	a.generation++
	if a.cancelLoad != nil {
		a.cancelLoad()
		a.cancelLoad = nil
	}
	a.source = LikedPlaylistID
	a.pendingSeek = 0
	a.mu.Unlock()

	if was {
		if err := a.player.LoadSequence(nil, 0); err != nil {
			a.log.Debug().Err(err).Msg("clear playback")
		}
		if a.sessions != nil {
			if err := a.sessions.ClearSession(); err != nil {
				a.log.Warn().Err(err).Msg("clear saved session")
			}
		}
	}
	a.feed.update(func(s *AudioState) { *s = initialAudioState() })
}

func (a *Audio) fail(op errmsg.Op, err error) {
	msg := errmsg.Format(op, err)
	a.log.Warn().Err(err).Str("op", string(op)).Msg("audio")
	a.feed.update(func(s *AudioState) {
		s.Status = StatusError
		s.Err = msg
	})
}

// apply folds one playback update into the state.
func (a *Audio) apply(u playback.Update) {
	switch u := u.(type) {
	case playback.Idle:
		a.feed.update(func(s *AudioState) {
			s.Playing = false
			s.setPosition(0)
		})
	case playback.Buffering:
		a.feed.update(func(s *AudioState) { s.setPosition(u.Position) })
	case playback.Progress:
		a.feed.update(func(s *AudioState) { s.setPosition(u.Position) })
	case playback.Ready:
		a.feed.update(func(s *AudioState) {
			s.Duration = u.Duration
			s.Status = StatusReady
			s.Err = ""
			s.setPosition(s.Position)
		})
		a.applyPendingSeek()
	case playback.Playing:
		a.feed.update(func(s *AudioState) { s.Playing = u.IsPlaying })
		if !u.IsPlaying {
			a.saveSession()
		}
	case playback.Current:
		a.feed.update(func(s *AudioState) {
			s.Current = s.lookup(u)
		})
		a.saveSession()
	case playback.Ended:
		a.saveSession()
	case playback.Failed:
		a.fail(errmsg.OpPlaybackStart, u.Err)
	}
}

func (a *Audio) applyPendingSeek() {
	a.mu.Lock()
	pos := a.pendingSeek
	a.pendingSeek = 0
	a.mu.Unlock()
	if pos <= 0 {
		return
	}
	if err := a.player.SeekTo(pos); err != nil {
		a.log.Debug().Err(err).Msg("restore position")
	}
}

func (s *AudioState) setPosition(pos time.Duration) {
	s.Position = pos
	s.Progress = progressPercent(pos, s.Duration)
	s.ProgressString = formatPosition(pos)
}

// lookup resolves the track behind a Current update, preferring catalog
// data over the update's display fields.
func (s *AudioState) lookup(u playback.Current) gateway.Track {
	for _, list := range [][]gateway.Track{s.Selected.Tracks, s.Tracks, s.Liked} {
		if t, ok := findTrack(u.TrackID, list); ok {
			return t
		}
	}
	return gateway.Track{ID: u.TrackID, Title: u.Title, Author: u.Artist}
}

func progressPercent(pos, dur time.Duration) float64 {
	if pos <= 0 || dur <= 0 {
		return 0
	}
	return float64(pos) / float64(dur) * 100
}

func formatPosition(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func findTrack(id int64, tracks []gateway.Track) (gateway.Track, bool) {
	i := slices.IndexFunc(tracks, func(t gateway.Track) bool { return t.ID == id })
	if i < 0 {
		return gateway.Track{}, false
	}
	return tracks[i], true
}

func likedPlaylist(tracks []gateway.Track) gateway.Playlist {
	return gateway.Playlist{
		ID:     LikedPlaylistID,
		Title:  likedTitle,
		Author: likedAuthor,
		Tracks: slices.Clone(tracks),
	}
}

func toPlaybackTrack(t gateway.Track) playback.Track {
	return playback.Track{
		ID:          t.ID,
		Title:       t.Title,
		Artist:      t.Author,
		CoverBase64: t.CoverBase64,
		Duration:    t.Duration(),
	}
}

func toPlaybackTracks(tracks []gateway.Track) []playback.Track {
	out := make([]playback.Track, len(tracks))
	for i, t := range tracks {
		out[i] = toPlaybackTrack(t)
	}
	return out
}

// resolvePlaylist returns playlist id with its tracks. The liked playlist is
// built locally; reuseSelected avoids a fetch when id is already selected.
func (a *Audio) resolvePlaylist(ctx context.Context, id int64, reuseSelected bool) (gateway.Playlist, error) {
	st := a.feed.Get()
	if id == LikedPlaylistID {
		return likedPlaylist(st.Liked), nil
	}
	if reuseSelected && st.Selected.ID == id {
		return st.Selected, nil
	}
	pl, err := a.catalog.Playlist(ctx, id)
	if err != nil {
		return gateway.Playlist{}, err
	}
	return *pl, nil
}

// PlayPlaylist loads playlist id from its first track and starts playback.
func (a *Audio) PlayPlaylist(ctx context.Context, id int64) error {
	pl, err := a.resolvePlaylist(ctx, id, false)
	if err != nil {
		a.fail(errmsg.OpPlaylistLoad, err)
		return err
	}
	return a.startPlaylist(pl, 0)
}

// PlayPlaylistTrack loads playlist playlistID and starts at trackID.
func (a *Audio) PlayPlaylistTrack(ctx context.Context, trackID, playlistID int64) error {
	pl, err := a.resolvePlaylist(ctx, playlistID, true)
	if err != nil {
		a.fail(errmsg.OpPlaylistLoad, err)
		return err
	}
	idx := slices.IndexFunc(pl.Tracks, func(t gateway.Track) bool { return t.ID == trackID })
	if idx < 0 {
		return fmt.Errorf("track %d in playlist %d: %w", trackID, playlistID, ErrNotFound)
	}
	return a.startPlaylist(pl, idx)
}

func (a *Audio) startPlaylist(pl gateway.Playlist, start int) error {
	a.feed.update(func(s *AudioState) {
		s.Selected = pl
		if start < len(pl.Tracks) {
			s.Current = pl.Tracks[start]
		}
	})
	a.mu.Lock()
	a.source = pl.ID
	a.pendingSeek = 0
	a.mu.Unlock()

	if err := a.player.LoadSequence(toPlaybackTracks(pl.Tracks), start); err != nil {
		return err
	}
	if len(pl.Tracks) == 0 {
		return nil
	}
	return a.player.Play()
}

// PlayTrack plays a single catalog track, adding it to the loaded
// sequence. Playing the current track again toggles pause.
func (a *Audio) PlayTrack(trackID int64) error {
	st := a.feed.Get()
	t, ok := findTrack(trackID, st.Tracks)
	if !ok {
		t, ok = findTrack(trackID, st.Liked)
	}
	if !ok {
		return fmt.Errorf("track %d: %w", trackID, ErrNotFound)
	}
	a.feed.update(func(s *AudioState) {
		s.Selected = noPlaylist
		s.Current = t
	})
	a.mu.Lock()
	a.pendingSeek = 0
	a.mu.Unlock()
	return a.player.PlayTrack(toPlaybackTrack(t))
}

// Like marks a track as liked.
func (a *Audio) Like(ctx context.Context, trackID int64) error {
	if err := a.catalog.Like(ctx, trackID); err != nil {
		a.fail(errmsg.OpLike, err)
		return err
	}
	a.setLiked(trackID, true)
	return nil
}

// Unlike removes a track from the liked tracks.
func (a *Audio) Unlike(ctx context.Context, trackID int64) error {
	if err := a.catalog.Unlike(ctx, trackID); err != nil {
		a.fail(errmsg.OpUnlike, err)
		return err
	}
	a.setLiked(trackID, false)
	return nil
}

// ToggleLike likes or unlikes a track depending on its current state.
func (a *Audio) ToggleLike(ctx context.Context, trackID int64) error {
	if a.isLiked(trackID) {
		return a.Unlike(ctx, trackID)
	}
	return a.Like(ctx, trackID)
}

func (a *Audio) isLiked(trackID int64) bool {
	st := a.feed.Get()
	if _, ok := findTrack(trackID, st.Liked); ok {
		return true
	}
	if t, ok := findTrack(trackID, st.Tracks); ok {
		return t.IsLiked
	}
	return st.Current.ID == trackID && st.Current.IsLiked
}

func (a *Audio) setLiked(trackID int64, liked bool) {
	a.feed.update(func(s *AudioState) {
		mark := func(list []gateway.Track) {
			for i := range list {
				if list[i].ID == trackID {
					list[i].IsLiked = liked
				}
			}
		}
		mark(s.Tracks)
		mark(s.Selected.Tracks)
		if s.Current.ID == trackID {
			s.Current.IsLiked = liked
		}

		i := slices.IndexFunc(s.Liked, func(t gateway.Track) bool { return t.ID == trackID })
		switch {
		case liked && i < 0:
			t, ok := findTrack(trackID, s.Tracks)
			if !ok && s.Current.ID == trackID {
				t, ok = s.Current, true
			}
			if ok {
				t.IsLiked = true
				s.Liked = append(s.Liked, t)
			}
		case !liked && i >= 0:
			s.Liked = slices.Delete(s.Liked, i, i+1)
		}
	})
}

// CreatePlaylist creates a playlist and reloads the catalog.
func (a *Audio) CreatePlaylist(ctx context.Context, title string, trackIDs []int64) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("playlist title is required")
	}
	if err := a.catalog.CreatePlaylist(ctx, gateway.NewPlaylist{Title: title, TrackIDs: trackIDs}); err != nil {
		a.fail(errmsg.OpPlaylistCreate, err)
		return err
	}
	return a.Refresh(ctx)
}

// UploadTrack publishes the audio file at audioPath with an optional cover
// image. A blank title falls back to the file's tag, then its name.
func (a *Audio) UploadTrack(ctx context.Context, title, audioPath, coverPath string) error {
	audio, err := os.Open(audioPath)
	if err != nil {
		a.fail(errmsg.OpUpload, err)
		return err
	}
	defer audio.Close()

	if strings.TrimSpace(title) == "" {
		title = uploadTitle(audio, audioPath)
	}
	up := gateway.Upload{
		Title: strings.TrimSpace(title),
		Audio: gateway.File{Name: filepath.Base(audioPath), Reader: audio},
	}

	if coverPath != "" {
		cover, err := os.Open(coverPath)
		if err != nil {
			a.fail(errmsg.OpUpload, err)
			return err
		}
		defer cover.Close()
		up.Cover = &gateway.File{Name: filepath.Base(coverPath), Reader: cover}
	}

	if err := a.catalog.UploadTrack(ctx, up); err != nil {
		a.fail(errmsg.OpUpload, err)
		return err
	}
	a.log.Info().Str("title", up.Title).Msg("track uploaded")
	return a.Refresh(ctx)
}

// uploadTitle reads the title tag of r, falling back to the file name
// without extension. r is rewound before returning.
func uploadTitle(r io.ReadSeeker, path string) string {
	defer func() { _, _ = r.Seek(0, io.SeekStart) }()
	if m, err := tag.ReadFrom(r); err == nil {
		if t := strings.TrimSpace(m.Title()); t != "" {
			return t
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SeekFraction seeks to f (0..1) of the current track.
func (a *Audio) SeekFraction(f float64) error {
	f = max(0, min(f, 1))
	a.feed.update(func(s *AudioState) { s.Progress = f * 100 })
	return a.player.SeekToFraction(f)
}

// PlayPause toggles playback.
func (a *Audio) PlayPause() error { return a.player.PlayPause() }

// Next moves to the next track.
func (a *Audio) Next() error { return a.player.Next() }

// Previous moves to the previous track.
func (a *Audio) Previous() error { return a.player.Previous() }

func (a *Audio) saveSession() {
	if a.sessions == nil {
		return
	}
	snap := a.player.Snapshot()
	if !snap.IsLoaded() || snap.Index < 0 {
		return
	}
	a.mu.Lock()
	source := a.source
	a.mu.Unlock()

	st := state.SessionState{
		CurrentIndex: snap.Index,
		Position:     snap.Position,
		PlaylistID:   source,
		Tracks:       make([]state.SessionTrack, len(snap.Tracks)),
	}
	for i, t := range snap.Tracks {
		st.Tracks[i] = state.SessionTrack{
			TrackID:  t.ID,
			Title:    t.Title,
			Author:   t.Artist,
			Duration: t.Duration,
		}
	}
	a.sessions.SaveSession(st)
}

// restoreSession loads the saved sequence paused at its saved position.
func (a *Audio) restoreSession(gen uint64) {
	if a.sessions == nil || !a.resume || a.player.Snapshot().IsLoaded() {
		return
	}
	saved, err := a.sessions.GetSession()
	if err != nil {
		a.log.Warn().Err(err).Msg("read saved session")
		return
	}
	if saved.CurrentIndex < 0 || len(saved.Tracks) == 0 {
		return
	}

	st := a.feed.Get()
	tracks := make([]gateway.Track, len(saved.Tracks))
	for i, t := range saved.Tracks {
		if cat, ok := findTrack(t.TrackID, st.Tracks); ok {
			tracks[i] = cat
			continue
		}
		tracks[i] = gateway.Track{
			ID:     t.TrackID,
			Title:  t.Title,
			Author: t.Author,
			Length: t.Duration.Seconds(),
		}
	}

	// held until the sequence is submitted so a logout clears it afterwards
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.generation != gen {
		return
	}
	a.source = saved.PlaylistID
	a.pendingSeek = saved.Position

	a.feed.update(func(s *AudioState) { s.Current = tracks[saved.CurrentIndex] })
	if err := a.player.LoadSequence(toPlaybackTracks(tracks), saved.CurrentIndex); err != nil {
		a.log.Debug().Err(err).Msg("restore session")
		return
	}
	a.log.Info().
		Int("tracks", len(tracks)).
		Int("index", saved.CurrentIndex).
		Msg("restored last session")
}
