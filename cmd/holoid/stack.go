// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/holoid/internal/auth"
	authpg "github.com/holomush/holoid/internal/auth/postgres"
	"github.com/holomush/holoid/internal/openid"
	"github.com/holomush/holoid/internal/openid/relyingparty"
	rppg "github.com/holomush/holoid/internal/openid/relyingparty/postgres"
	"github.com/holomush/holoid/internal/store"
)

// StackDeps contains injectable dependencies for the commands that work on
// players, sessions and logins. All fields with nil values will use their
// default implementations.
type StackDeps struct {
	// Connect opens the database and returns a function releasing it.
	// Default: store.Connect with the configured database options
	Connect func(ctx context.Context, c *cli) (authpg.Querier, func(), error)
	// Client performs the OpenID protocol steps.
	// Default: relyingparty.NewClient
	Client relyingparty.Client
	// Registry receives the login metrics.
	// Default: a new prometheus.Registry per stack
	Registry *prometheus.Registry
	// Now is the clock used for sessions and verification state.
	// Default: time.Now
	Now func() time.Time
}

// stack is the login machinery built from the loaded configuration.
type stack struct {
	players       *authpg.PlayerRepository
	states        *rppg.StateStore
	service       *auth.Service
	registrar     *auth.Registrar
	provider      *relyingparty.Provider
	authenticator *openid.Authenticator
	registry      *prometheus.Registry
	now           func() time.Time
	release       func()
}

// open connects to the database and builds the stack. Callers must call
// release on the result.
func (d *StackDeps) open(ctx context.Context, c *cli) (*stack, error) {
	connect := d.Connect
	if connect == nil {
		connect = connectDatabase
	}
	pool, release, err := connect(ctx, c)
	if err != nil {
		return nil, err
	}
	s, err := newStack(c, pool, d)
	if err != nil {
		release()
		return nil, err
	}
	s.release = release
	return s, nil
}

func connectDatabase(ctx context.Context, c *cli) (authpg.Querier, func(), error) {
	databaseURL, err := c.cfg.RequireDatabaseURL()
	if err != nil {
		return nil, nil, err
	}
	opts := c.cfg.Database.ConnectOptions()
	opts.Logger = c.logger
	pool, err := store.Connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Close, nil
}

// newStack wires the repositories, the session service, the relying party
// and the authenticator to pool, configured from c.cfg.
func newStack(c *cli, pool authpg.Querier, d *StackDeps) (*stack, error) {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	client := d.Client
	if client == nil {
		client = relyingparty.NewClient()
	}
	registry := d.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	players := authpg.NewPlayerRepository(pool)
	sessions := authpg.NewWebSessionRepository(pool)
	states := rppg.NewStateStore(pool)

	service, err := auth.NewAuthServiceWithLogger(players, sessions, c.cfg.Session, c.logger, auth.WithClock(now))
	if err != nil {
		return nil, err
	}
	provider, err := relyingparty.NewProvider(c.cfg.RelyingParty, client, states, c.logger, relyingparty.WithClock(now))
	if err != nil {
		return nil, err
	}
	registrar := auth.NewRegistrar(players, c.logger)
	authenticator, err := openid.NewAuthenticator(c.cfg.OpenID, openid.Deps{
		Normalizer: relyingparty.Normalizer{},
		Provider:   provider,
		Finders:    openid.PlayerFinders(players),
		Creator:    registrar,
		Logger:     c.logger,
		Metrics:    openid.NewMetrics(registry),
	})
	if err != nil {
		return nil, err
	}

	return &stack{
		players:       players,
		states:        states,
		service:       service,
		registrar:     registrar,
		provider:      provider,
		authenticator: authenticator,
		registry:      registry,
		now:           now,
		release:       func() {},
	}, nil
}

// withStack opens a stack for the duration of run.
func withStack(ctx context.Context, c *cli, deps *StackDeps, run func(*stack) error) error {
	s, err := deps.open(ctx, c)
	if err != nil {
		return err
	}
	defer s.release()
	return run(s)
}
