package coordinator

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/llehouerou/rollen/internal/errmsg"
	"github.com/llehouerou/rollen/internal/gateway"
)

// AuthState is the state of the login and registration forms.
type AuthState struct {
	Status   Status
	Err      string
	Username string // set after a successful login
}

// Auth logs users in and out.
type Auth struct {
	accounts Accounts
	creds    Credentials
	log      zerolog.Logger
	feed     *Feed[AuthState]
}

// NewAuth creates an Auth coordinator.
func NewAuth(accounts Accounts, creds Credentials, log zerolog.Logger) *Auth {
	return &Auth{
		accounts: accounts,
		creds:    creds,
		log:      log,
		feed:     newFeed(AuthState{}, nil),
	}
}

// State returns the current state.
func (a *Auth) State() AuthState { return a.feed.Get() }

// Subscribe streams state changes.
func (a *Auth) Subscribe() (<-chan AuthState, func()) { return a.feed.Subscribe() }

// Login exchanges the credentials for a token and stores it. Other
// coordinators learn about the login through the credential store.
func (a *Auth) Login(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return a.failed(errmsg.OpLogin, errors.New("username and password are required"))
	}
	a.loading()

	resp, err := a.accounts.Login(ctx, username, password)
	if err != nil {
		return a.failed(errmsg.OpLogin, err)
	}
	if err := a.creds.SaveAccessToken(resp.Token); err != nil {
		return a.failed(errmsg.OpLogin, err)
	}

	a.log.Info().Str("user", resp.Username).Msg("logged in")
	a.feed.update(func(s *AuthState) {
		*s = AuthState{Status: StatusReady, Username: resp.Username}
	})
	return nil
}

// Register creates an account. It does not log in.
func (a *Auth) Register(ctx context.Context, name, email, password string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return a.failed(errmsg.OpRegister, errors.New("name, email and password are required"))
	}
	a.loading()

	req := gateway.RegisterRequest{Name: name, Email: email, Password: password}
	if err := a.accounts.Register(ctx, req); err != nil {
		return a.failed(errmsg.OpRegister, err)
	}
	a.feed.update(func(s *AuthState) { *s = AuthState{Status: StatusReady} })
	return nil
}

// Logout forgets the token.
func (a *Auth) Logout() {
	a.creds.Logout()
	a.feed.update(func(s *AuthState) { *s = AuthState{} })
	a.log.Info().Msg("logged out")
}

func (a *Auth) loading() {
	a.feed.update(func(s *AuthState) { *s = AuthState{Status: StatusLoading} })
}

func (a *Auth) failed(op errmsg.Op, err error) error {
	msg := errmsg.Format(op, err)
	a.log.Warn().Err(err).Str("op", string(op)).Msg("auth")
	a.feed.update(func(s *AuthState) { *s = AuthState{Status: StatusError, Err: msg} })
	return err
}
