package coordinator

import (
	"bytes"
	"context"
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/rollen/internal/credentials"
	"github.com/llehouerou/rollen/internal/gateway"
	"github.com/llehouerou/rollen/internal/state"
)

var (
	songA = gateway.Track{ID: 1, Title: "Alpha", Author: "Ann", Length: 180}
	songB = gateway.Track{ID: 2, Title: "Beta", Author: "Bob", Length: 240}
	songC = gateway.Track{ID: 3, Title: "Gamma", Author: "Cid", Length: 200, IsLiked: true}
)

type uploaded struct {
	Title     string
	AudioName string
	Audio     []byte
	CoverName string
}

// fakeGateway is an in-memory gateway.
type fakeGateway struct {
	mu        sync.Mutex
	tracks    []gateway.Track
	liked     []gateway.Track
	playlists map[int64]gateway.Playlist
	comments  map[int64][]gateway.Comment
	detail    gateway.UserDetail
	token     string
	errs      map[string]error
	calls     []string
	searches  []string
	created   []gateway.NewPlaylist
	uploads   []uploaded
	bio       string
	picture   []byte
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		tracks: []gateway.Track{songA, songB, songC},
		liked:  []gateway.Track{songC},
		playlists: map[int64]gateway.Playlist{
			7: {ID: 7, Title: "Road trip", Author: "ann", Tracks: []gateway.Track{songB, songA}},
		},
		comments: map[int64][]gateway.Comment{},
		detail:   gateway.UserDetail{ID: 5, Name: "ann", Email: "ann@example.com", Bio: "hello"},
		token:    "jwt-token",
		errs:     map[string]error{},
	}
}

func (f *fakeGateway) failOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
}

// enter records the call and returns the configured error. f.mu must be held.
func (f *fakeGateway) enter(method string) error {
	f.calls = append(f.calls, method)
	return f.errs[method]
}

func (f *fakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeGateway) count(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeGateway) Tracks(context.Context) ([]gateway.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Tracks"); err != nil {
		return nil, err
	}
	return slices.Clone(f.tracks), nil
}

func (f *fakeGateway) LikedTracks(context.Context) ([]gateway.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("LikedTracks"); err != nil {
		return nil, err
	}
	return slices.Clone(f.liked), nil
}

func (f *fakeGateway) Like(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enter("Like")
}

func (f *fakeGateway) Unlike(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enter("Unlike")
}

func (f *fakeGateway) Playlists(context.Context) ([]gateway.PlaylistSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Playlists"); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(f.playlists))
	for id := range f.playlists {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]gateway.PlaylistSummary, len(ids))
	for i, id := range ids {
		out[i] = f.playlists[id].Summary()
	}
	return out, nil
}

func (f *fakeGateway) Playlist(_ context.Context, id int64) (*gateway.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Playlist"); err != nil {
		return nil, err
	}
	pl, ok := f.playlists[id]
	if !ok {
		return nil, &gateway.HTTPError{Status: 404, Message: "Playlist not found"}
	}
	pl.Tracks = slices.Clone(pl.Tracks)
	return &pl, nil
}

func (f *fakeGateway) CreatePlaylist(_ context.Context, p gateway.NewPlaylist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreatePlaylist"); err != nil {
		return err
	}
	f.created = append(f.created, p)
	return nil
}

func (f *fakeGateway) UploadTrack(_ context.Context, up gateway.Upload) error {
	data, err := io.ReadAll(up.Audio.Reader)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UploadTrack"); err != nil {
		return err
	}
	u := uploaded{Title: up.Title, AudioName: up.Audio.Name, Audio: data}
	if up.Cover != nil {
		u.CoverName = up.Cover.Name
	}
	f.uploads = append(f.uploads, u)
	return nil
}

func (f *fakeGateway) Search(_ context.Context, query string) ([]gateway.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	if err := f.enter("Search"); err != nil {
		return nil, err
	}
	var out []gateway.Track
	for _, t := range f.tracks {
		if bytes.Contains(bytes.ToLower([]byte(t.Title)), bytes.ToLower([]byte(query))) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeGateway) Searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.searches)
}

func (f *fakeGateway) Login(_ context.Context, username, password string) (*gateway.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Login"); err != nil {
		return nil, err
	}
	return &gateway.LoginResponse{Token: f.token, Username: username, Roles: []string{"USER"}}, nil
}

func (f *fakeGateway) Register(context.Context, gateway.RegisterRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enter("Register")
}

func (f *fakeGateway) UserDetail(context.Context) (*gateway.UserDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UserDetail"); err != nil {
		return nil, err
	}
	d := f.detail
	return &d, nil
}

func (f *fakeGateway) UpdateUserDetail(_ context.Context, bio string, picture *gateway.File) (*gateway.UserUpdate, error) {
	var data []byte
	if picture != nil {
		var err error
		if data, err = io.ReadAll(picture.Reader); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateUserDetail"); err != nil {
		return nil, err
	}
	f.bio = bio
	f.picture = data
	return &gateway.UserUpdate{Bio: bio, ProfilePictureBase64: string(data)}, nil
}

func (f *fakeGateway) Comments(_ context.Context, trackID int64) ([]gateway.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Comments"); err != nil {
		return nil, err
	}
	return slices.Clone(f.comments[trackID]), nil
}

func (f *fakeGateway) AddComment(_ context.Context, trackID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("AddComment"); err != nil {
		return err
	}
	c := gateway.Comment{
		ID:       int64(len(f.comments[trackID]) + 1),
		TrackID:  trackID,
		Username: "ann",
		Text:     text,
	}
	f.comments[trackID] = append(f.comments[trackID], c)
	return nil
}

func newTestCredentials(t *testing.T) *credentials.Store {
	t.Helper()
	s, err := credentials.New(bytes.Repeat([]byte{3}, 32), state.NewMock(), zerolog.Nop())
	require.NoError(t, err)
	return s
}
