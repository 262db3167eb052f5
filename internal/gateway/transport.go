package gateway

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// TokenSource supplies the current session token. An empty token means
// the user is not logged in.
type TokenSource interface {
	AccessToken() string
}

// bearerSource adapts a TokenSource to oauth2.TokenSource.
type bearerSource struct {
	tokens TokenSource
}

func (s bearerSource) Token() (*oauth2.Token, error) {
	tok := s.tokens.AccessToken()
	if tok == "" {
		return nil, ErrNotLoggedIn
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

const requestIDHeader = "X-Request-ID"

// requestIDTransport stamps every outgoing request with a request id.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(requestIDHeader) != "" {
		return t.base.RoundTrip(req)
	}
	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set(requestIDHeader, uuid.NewString())
	return t.base.RoundTrip(clone)
}
