package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Login exchanges credentials for a session token. It does not store the
// token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	r, err := jsonRequest(http.MethodPost, "/api/auth/login", LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	r.anonymous = true

	var resp LoginResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return nil, errors.New("login: server returned no token")
	}
	return &resp, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	r, err := jsonRequest(http.MethodPost, "/api/auth/signup", req)
	if err != nil {
		return err
	}
	r.anonymous = true

	if err := c.do(ctx, r, nil); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// UserDetail returns the current user's profile.
func (c *Client) UserDetail(ctx context.Context) (*UserDetail, error) {
	var u UserDetail
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/user/details"}, &u); err != nil {
		return nil, fmt.Errorf("get user details: %w", err)
	}
	return &u, nil
}

// UpdateUserDetail changes the profile bio and, when picture is non-nil, the
// profile picture.
func (c *Client) UpdateUserDetail(ctx context.Context, bio string, picture *File) (*UserUpdate, error) {
	fields := []formField{{name: "bio", value: bio}}
	if picture != nil {
		fields = append(fields, formField{name: "profilePicture", file: picture})
	}
	body, contentType := multipartBody(fields)

	r := request{
		method:      http.MethodPut,
		path:        "/api/user/update",
		body:        body,
		contentType: contentType,
	}
	var u UserUpdate
	if err := c.do(ctx, r, &u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}
