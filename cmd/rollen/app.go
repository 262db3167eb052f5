package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/llehouerou/rollen/internal/config"
	"github.com/llehouerou/rollen/internal/coordinator"
	"github.com/llehouerou/rollen/internal/credentials"
	"github.com/llehouerou/rollen/internal/gateway"
	"github.com/llehouerou/rollen/internal/logging"
	"github.com/llehouerou/rollen/internal/state"
)

var errNotLoggedIn = errors.New("not logged in (run: rollen login <user> <password>)")

// app holds the long-lived collaborators shared by every command.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	state  *state.Manager
	creds  *credentials.Store
	client *gateway.Client
}

func newApp(cfg *config.Config, log zerolog.Logger) (*app, error) {
	st, err := state.Open(cfg.DataDir, logging.Component(log, "state"))
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	creds, err := credentials.Open(cfg.DataDir, st, logging.Component(log, "credentials"))
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open credentials: %w", err)
	}
	client := gateway.New(cfg.Server.URL, creds,
		gateway.WithTimeout(cfg.RequestTimeout()),
		gateway.WithUnauthorizedHandler(creds.Logout),
		gateway.WithLogger(logging.Component(log, "gateway")),
	)
	return &app{cfg: cfg, log: log, state: st, creds: creds, client: client}, nil
}

func (a *app) Close() {
	if err := a.state.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close state")
	}
}

func (a *app) requireLogin() error {
	if !a.creds.IsLoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

func (a *app) auth() *coordinator.Auth {
	return coordinator.NewAuth(a.client, a.creds, logging.Component(a.log, "auth"))
}

// catalog returns an Audio coordinator without a player, for commands that
// only touch the catalog.
func (a *app) catalog() *coordinator.Audio {
	return coordinator.NewAudio(a.client, a.creds, nil,
		coordinator.WithAudioLogger(logging.Component(a.log, "audio")))
}
