// Package gateway is the HTTP client for the rollen backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const defaultTimeout = 30 * time.Second

// Client talks to the backend REST API.
type Client struct {
	baseURL        string
	anon           *http.Client
	authed         *http.Client
	stream         *http.Client
	onUnauthorized func()
	log            zerolog.Logger
}

type options struct {
	transport      http.RoundTripper
	timeout        time.Duration
	onUnauthorized func()
	log            zerolog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithTransport sets the base transport used by every request.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithTimeout sets the per-request timeout for catalog calls. Streams are
// not subject to it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithUnauthorizedHandler registers fn to run when an authenticated call
// is rejected with 401.
func WithUnauthorizedHandler(fn func()) Option {
	return func(o *options) { o.onUnauthorized = fn }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates a client for the backend at baseURL. Authenticated calls
// carry the token from tokens as a bearer header.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	o := options{
		transport: http.DefaultTransport,
		timeout:   defaultTimeout,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	base := requestIDTransport{base: o.transport}
	authTransport := &oauth2.Transport{
		Source: bearerSource{tokens: tokens},
		Base:   base,
	}

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		anon:           &http.Client{Timeout: o.timeout, Transport: base},
		authed:         &http.Client{Timeout: o.timeout, Transport: authTransport},
		stream:         &http.Client{Transport: authTransport},
		onUnauthorized: o.onUnauthorized,
		log:            o.log,
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StreamURL returns the audio stream location for a track.
func (c *Client) StreamURL(id int64) string {
	return c.baseURL + "/api/song/stream/" + strconv.FormatInt(id, 10)
}

// StreamClient returns an authenticated client without a request timeout,
// for long-lived audio streams.
func (c *Client) StreamClient() *http.Client {
	return c.stream
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	anonymous   bool
}

func jsonRequest(method, path string, payload any) (request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("encode request: %w", err)
	}
	return request{
		method:      method,
		path:        path,
		body:        bytes.NewReader(data),
		contentType: "application/json",
	}, nil
}

// do executes r and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		if closer, ok := r.body.(io.Closer); ok {
			_ = closer.Close()
		}
		return fmt.Errorf("create request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")

	hc := c.authed
	if r.anonymous {
		hc = c.anon
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("gateway request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := newHTTPError(resp)
		if resp.StatusCode == http.StatusUnauthorized && !r.anonymous && c.onUnauthorized != nil {
			c.log.Warn().Str("path", r.path).Msg("session rejected, logging out")
			c.onUnauthorized()
		}
		return httpErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
