package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Tracks returns every track in the catalog.
func (c *Client) Tracks(ctx context.Context) ([]Track, error) {
	var tracks []Track
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/song/all"}, &tracks); err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return tracks, nil
}

// LikedTracks returns the tracks liked by the current user.
func (c *Client) LikedTracks(ctx context.Context) ([]Track, error) {
	var tracks []Track
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/song/like/all"}, &tracks); err != nil {
		return nil, fmt.Errorf("list liked tracks: %w", err)
	}
	return tracks, nil
}

// Search returns the tracks matching query.
func (c *Client) Search(ctx context.Context, query string) ([]Track, error) {
	var tracks []Track
	r := request{
		method: http.MethodGet,
		path:   "/api/song/search",
		query:  url.Values{"search": {query}},
	}
	if err := c.do(ctx, r, &tracks); err != nil {
		return nil, fmt.Errorf("search tracks: %w", err)
	}
	return tracks, nil
}

// Like marks a track as liked.
func (c *Client) Like(ctx context.Context, id int64) error {
	path := "/api/song/like/id/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, request{method: http.MethodPost, path: path}, nil); err != nil {
		return fmt.Errorf("like track %d: %w", id, err)
	}
	return nil
}

// Unlike removes a like from a track.
func (c *Client) Unlike(ctx context.Context, id int64) error {
	path := "/api/song/unlike/id/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, request{method: http.MethodDelete, path: path}, nil); err != nil {
		return fmt.Errorf("unlike track %d: %w", id, err)
	}
	return nil
}

// Upload is a new track to publish. Cover is optional.
type Upload struct {
	Title string
	Audio File
	Cover *File
}

// UploadTrack publishes a new track.
func (c *Client) UploadTrack(ctx context.Context, up Upload) error {
	fields := []formField{
		{name: "title", value: up.Title},
		{name: "file", file: &up.Audio},
	}
	if up.Cover != nil {
		fields = append(fields, formField{name: "cover", file: up.Cover})
	}
	body, contentType := multipartBody(fields)

	r := request{
		method:      http.MethodPost,
		path:        "/api/song/upload",
		body:        body,
		contentType: contentType,
	}
	if err := c.do(ctx, r, nil); err != nil {
		return fmt.Errorf("upload track: %w", err)
	}
	return nil
}
