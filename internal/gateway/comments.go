package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// Comments returns the comments on a track.
func (c *Client) Comments(ctx context.Context, trackID int64) ([]Comment, error) {
	var comments []Comment
	path := "/api/comment/id/" + strconv.FormatInt(trackID, 10)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &comments); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// AddComment posts a comment on a track.
func (c *Client) AddComment(ctx context.Context, trackID int64, text string) error {
	body, contentType := multipartBody([]formField{
		{name: "songId", value: strconv.FormatInt(trackID, 10)},
		{name: "text", value: text},
	})
	r := request{
		method:      http.MethodPost,
		path:        "/api/comment/addComment",
		body:        body,
		contentType: contentType,
	}
	if err := c.do(ctx, r, nil); err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}
