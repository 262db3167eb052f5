package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenSource, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", tokens, opts...)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestTracks_SendsBearerAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/song/all", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":7,"title":"Song","author":"Band","length":185.5,"isLiked":true,"reShares":2}]`)
	}, staticToken("tok"))

	tracks, err := c.Tracks(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, int64(7), tracks[0].ID)
	assert.Equal(t, "Song", tracks[0].Title)
	assert.True(t, tracks[0].IsLiked)
	assert.Equal(t, 185500*time.Millisecond, tracks[0].Duration())
}

func TestAuthenticatedCall_NoToken(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}, staticToken(""))

	_, err := c.Tracks(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotLoggedIn))
	assert.Zero(t, hits.Load(), "request must not reach the server")
}

func TestUnauthorized_InvokesHandler(t *testing.T) {
	var called atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"token expired"}`)
	}, staticToken("tok"), WithUnauthorizedHandler(func() { called.Add(1) }))

	_, err := c.LikedTracks(context.Background())

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	assert.Equal(t, "token expired", httpErr.Message)
	assert.Equal(t, int32(1), called.Load())
}

func TestLogin_Anonymous401DoesNotLogOut(t *testing.T) {
	var called atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}, staticToken("tok"), WithUnauthorizedHandler(func() { called.Add(1) }))

	_, err := c.Login(context.Background(), "bob", "wrong")

	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Zero(t, called.Load())
}

func TestLogin_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var req LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, LoginRequest{Username: "bob", Password: "pw"}, req)
		writeJSON(t, w, LoginResponse{Token: "jwt", Username: "bob", Roles: []string{"USER"}})
	}, staticToken(""))

	resp, err := c.Login(context.Background(), "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "jwt", resp.Token)
	assert.Equal(t, []string{"USER"}, resp.Roles)
}

func TestLogin_EmptyToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, LoginResponse{Username: "bob"})
	}, staticToken(""))

	_, err := c.Login(context.Background(), "bob", "pw")
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/signup", r.URL.Path)
		var req RegisterRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ann@example.com", req.Email)
		w.WriteHeader(http.StatusCreated)
	}, staticToken(""))

	err := c.Register(context.Background(), RegisterRequest{Name: "ann", Email: "ann@example.com", Password: "pw"})
	assert.NoError(t, err)
}

func TestLikeUnlike(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
	}, staticToken("tok"))

	require.NoError(t, c.Like(context.Background(), 3))
	require.NoError(t, c.Unlike(context.Background(), 3))

	assert.Equal(t, []string{
		"POST /api/song/like/id/3",
		"DELETE /api/song/unlike/id/3",
	}, paths)
}

func TestSearch_EncodesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/song/search", r.URL.Path)
		assert.Equal(t, "rock & roll", r.URL.Query().Get("search"))
		writeJSON(t, w, []Track{{ID: 1, Title: "Rock"}})
	}, staticToken("tok"))

	tracks, err := c.Search(context.Background(), "rock & roll")
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
}

func TestPlaylist(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/playlist/id/12", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":12,"title":"Mix","author":"ann","songs":[{"id":1},{"id":2}]}`)
	}, staticToken("tok"))

	p, err := c.Playlist(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "Mix", p.Title)
	assert.Len(t, p.Tracks, 2)
	assert.Equal(t, PlaylistSummary{ID: 12, Title: "Mix", Author: "ann"}, p.Summary())
}

func TestCreatePlaylist_EmptyTracksEncodedAsArray(t *testing.T) {
	c := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"title":"Empty","songId":[]}`, string(body))
	}, staticToken("tok"))

	assert.NoError(t, c.CreatePlaylist(context.Background(), NewPlaylist{Title: "Empty"}))
}

func TestUploadTrack_Multipart(t *testing.T) {
	c := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "My Song", r.FormValue("title"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "song.mp3", hdr.Filename)
		assert.Equal(t, "audio-bytes", string(data))

		_, _, err = r.FormFile("cover")
		assert.ErrorIs(t, err, http.ErrMissingFile)
	}, staticToken("tok"))

	err := c.UploadTrack(context.Background(), Upload{
		Title: "My Song",
		Audio: File{Name: "/tmp/song.mp3", Reader: strings.NewReader("audio-bytes")},
	})
	assert.NoError(t, err)
}

func TestAddComment(t *testing.T) {
	c := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/comment/addComment", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "5", r.FormValue("songId"))
		assert.Equal(t, "nice", r.FormValue("text"))
	}, staticToken("tok"))

	assert.NoError(t, c.AddComment(context.Background(), 5, "nice"))
}

func TestUpdateUserDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "hello", r.FormValue("bio"))
		_, hdr, err := r.FormFile("profilePicture")
		require.NoError(t, err)
		assert.Equal(t, "me.png", hdr.Filename)
		writeJSON(t, w, UserUpdate{Bio: "hello"})
	}, staticToken("tok"))

	u, err := c.UpdateUserDetail(context.Background(), "hello", &File{Name: "me.png", Reader: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Equal(t, "hello", u.Bio)
}

func TestDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}, staticToken("tok"))

	_, err := c.Playlists(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestStreamURL(t *testing.T) {
	c := New("http://host:8080/", staticToken(""))
	assert.Equal(t, "http://host:8080/api/song/stream/42", c.StreamURL(42))
	assert.Equal(t, "http://host:8080", c.BaseURL())
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"json message", 400, `{"message":"bad title"}`, "bad title"},
		{"json error", 403, `{"error":"Forbidden"}`, "Forbidden"},
		{"plain text", 409, "already liked\n", "already liked"},
		{"empty body", 404, "", "Not Found"},
		{"unknown json", 500, `{"foo":1}`, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage(tt.status, []byte(tt.body)))
		})
	}
}

func TestRequestIDTransport_KeepsExisting(t *testing.T) {
	var got string
	rt := requestIDTransport{base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		got = r.Header.Get(requestIDHeader)
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(""))}, nil
	})}

	req := httptest.NewRequest(http.MethodGet, "http://x/", nil)
	req.Header.Set(requestIDHeader, "fixed")
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "fixed", got)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
