// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package openid

import (
	"log/slog"

	"github.com/samber/oops"

	"github.com/holomush/holoid/internal/auth"
)

// Deps are the collaborators an Authenticator needs.
type Deps struct {
	Normalizer Normalizer
	Provider   Provider
	Finders    Finders
	Creator    PrincipalCreator

	// NewPrincipal builds the player registered for an unknown identifier.
	// Defaults to auth.NewOpenIDPlayer.
	NewPrincipal func(identifier string) (*auth.Player, error)
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Metrics may be nil.
	Metrics *Metrics
}

// Authenticator holds the process-wide OpenID configuration and collaborators
// and creates one Session per request. It is safe for concurrent use.
type Authenticator struct {
	cfg          Config
	finder       Finder
	normalizer   Normalizer
	provider     Provider
	creator      PrincipalCreator
	newPrincipal func(identifier string) (*auth.Player, error)
	logger       *slog.Logger
	metrics      *Metrics
}

// NewAuthenticator validates cfg, resolves its finder selector and returns an
// Authenticator.
func NewAuthenticator(cfg Config, deps Deps) (*Authenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Normalizer == nil {
		return nil, oops.Code("OPENID_CONFIG_INVALID").Errorf("normalizer is required")
	}
	if deps.Provider == nil {
		return nil, oops.Code("OPENID_CONFIG_INVALID").Errorf("provider is required")
	}
	if cfg.AutoRegister && deps.Creator == nil {
		return nil, oops.Code("OPENID_CONFIG_INVALID").Errorf("principal creator is required when auto-register is enabled")
	}

	finder, err := deps.Finders.Resolve(cfg.FinderSelector)
	if err != nil {
		return nil, err
	}

	a := &Authenticator{
		cfg:          cfg,
		finder:       finder,
		normalizer:   deps.Normalizer,
		provider:     deps.Provider,
		creator:      deps.Creator,
		newPrincipal: deps.NewPrincipal,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
	}
	if a.newPrincipal == nil {
		a.newPrincipal = auth.NewOpenIDPlayer
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a, nil
}

// Config returns the configuration the Authenticator was built with.
func (a *Authenticator) Config() Config {
	return a.cfg
}

// Normalize normalizes raw with the configured Normalizer.
func (a *Authenticator) Normalize(raw string) (string, error) {
	//nolint:wrapcheck // Normalizer errors carry their own code
	return a.normalizer.Normalize(raw)
}

// NewSession wraps login for the request req and registers the OpenID
// validators on it.
func (a *Authenticator) NewSession(login *auth.LoginSession, req Request) *Session {
	s := &Session{
		LoginSession: login,
		auth:         a,
		req:          req,
	}
	login.Validate("openid_identifier_error", s.validateIdentifierError)
	login.ValidateIf("openid", s.AuthenticatingWithOpenID, s.validateByOpenID)
	return s
}
