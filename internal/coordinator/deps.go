package coordinator

import (
	"context"
	"time"

	"github.com/llehouerou/rollen/internal/credentials"
	"github.com/llehouerou/rollen/internal/gateway"
	"github.com/llehouerou/rollen/internal/playback"
	"github.com/llehouerou/rollen/internal/state"
)

// Catalog is the part of the gateway used by Audio.
type Catalog interface {
	Tracks(ctx context.Context) ([]gateway.Track, error)
	LikedTracks(ctx context.Context) ([]gateway.Track, error)
	Like(ctx context.Context, id int64) error
	Unlike(ctx context.Context, id int64) error
	Playlists(ctx context.Context) ([]gateway.PlaylistSummary, error)
	Playlist(ctx context.Context, id int64) (*gateway.Playlist, error)
	CreatePlaylist(ctx context.Context, p gateway.NewPlaylist) error
	UploadTrack(ctx context.Context, up gateway.Upload) error
}

// Searcher runs catalog searches.
type Searcher interface {
	Search(ctx context.Context, query string) ([]gateway.Track, error)
}

// Accounts is the part of the gateway used by Auth and Profile.
type Accounts interface {
	Login(ctx context.Context, username, password string) (*gateway.LoginResponse, error)
	Register(ctx context.Context, req gateway.RegisterRequest) error
	UserDetail(ctx context.Context) (*gateway.UserDetail, error)
	UpdateUserDetail(ctx context.Context, bio string, picture *gateway.File) (*gateway.UserUpdate, error)
}

// CommentSource reads and posts track comments.
type CommentSource interface {
	Comments(ctx context.Context, trackID int64) ([]gateway.Comment, error)
	AddComment(ctx context.Context, trackID int64, text string) error
}

// Credentials is the credential store as seen by the coordinators.
type Credentials interface {
	SaveAccessToken(token string) error
	Logout()
	IsLoggedIn() bool
	Watch() *credentials.Watch
}

// Player is the playback adapter surface driven by Audio.
type Player interface {
	LoadSequence(tracks []playback.Track, start int) error
	Play() error
	PlayPause() error
	PlayTrack(t playback.Track) error
	SeekTo(position time.Duration) error
	SeekToFraction(f float64) error
	Next() error
	Previous() error
	Stop() error
	Subscribe() *playback.Subscription
	Snapshot() playback.Session
}

// SessionStore persists the last playback sequence.
type SessionStore interface {
	SaveSession(s state.SessionState)
	GetSession() (*state.SessionState, error)
	ClearSession() error
}

var (
	_ Catalog       = (*gateway.Client)(nil)
	_ Searcher      = (*gateway.Client)(nil)
	_ Accounts      = (*gateway.Client)(nil)
	_ CommentSource = (*gateway.Client)(nil)
	_ Credentials   = (*credentials.Store)(nil)
	_ Player        = (*playback.Adapter)(nil)
	_ SessionStore  = (*state.Manager)(nil)
)
