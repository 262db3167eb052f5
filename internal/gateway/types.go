package gateway

import "time"

// Track is a playable song as returned by the catalog endpoints.
type Track struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	CoverBase64 string  `json:"coverBase64"`
	Length      float64 `json:"length"` // seconds
	IsLiked     bool    `json:"isLiked"`
	ReShares    int     `json:"reShares"`
}

// Duration returns the track length as a time.Duration.
func (t Track) Duration() time.Duration {
	return time.Duration(t.Length * float64(time.Second))
}

// PlaylistSummary is a playlist without its tracks.
type PlaylistSummary struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	CoverBase64 string `json:"coverBase64"`
}

// Playlist is a playlist with its ordered tracks.
type Playlist struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	CoverBase64 string  `json:"coverBase64"`
	Tracks      []Track `json:"songs"`
}

// Summary drops the track list.
func (p Playlist) Summary() PlaylistSummary {
	return PlaylistSummary{ID: p.ID, Title: p.Title, Author: p.Author, CoverBase64: p.CoverBase64}
}

// NewPlaylist is the payload for creating a playlist.
type NewPlaylist struct {
	Title    string  `json:"title"`
	TrackIDs []int64 `json:"songId"`
}

// Comment is a user comment attached to a track.
type Comment struct {
	ID             int64  `json:"id"`
	TrackID        int64  `json:"songId"`
	UserID         int64  `json:"userId"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
	Text           string `json:"text"`
}

// UserDetail is the authenticated user's profile.
type UserDetail struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Bio                string  `json:"bio"`
	ProfileImageBase64 string  `json:"profileImageBase64"`
	Tracks             []Track `json:"songs"`
}

// UserUpdate is returned after a profile update.
type UserUpdate struct {
	Bio                  string `json:"bio"`
	ProfilePictureBase64 string `json:"profilePictureBase64"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session token issued on login.
type LoginResponse struct {
	Token    string   `json:"jwtSecret"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
