package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// Playlists returns every playlist without tracks.
func (c *Client) Playlists(ctx context.Context) ([]PlaylistSummary, error) {
	var playlists []PlaylistSummary
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/playlist/all"}, &playlists); err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	return playlists, nil
}

// Playlist returns a playlist with its tracks.
func (c *Client) Playlist(ctx context.Context, id int64) (*Playlist, error) {
	var p Playlist
	path := "/api/playlist/id/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &p); err != nil {
		return nil, fmt.Errorf("get playlist %d: %w", id, err)
	}
	return &p, nil
}

// CreatePlaylist creates a playlist holding the given tracks.
func (c *Client) CreatePlaylist(ctx context.Context, p NewPlaylist) error {
	if p.TrackIDs == nil {
		p.TrackIDs = []int64{}
	}
	r, err := jsonRequest(http.MethodPost, "/api/playlist/upload", p)
	if err != nil {
		return err
	}
	if err := c.do(ctx, r, nil); err != nil {
		return fmt.Errorf("create playlist: %w", err)
	}
	return nil
}
