// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Default web session lifetimes.
const (
	DefaultSessionExpiry    = 24 * time.Hour
	DefaultRememberMeExpiry = 30 * 24 * time.Hour
)

// SessionConfig controls the lifetime of web sessions created on login.
type SessionConfig struct {
	Expiry           time.Duration `koanf:"expiry" yaml:"expiry"`
	RememberMeExpiry time.Duration `koanf:"remember_me_expiry" yaml:"remember_me_expiry"`
}

// DefaultSessionConfig returns the default session lifetimes.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Expiry:           DefaultSessionExpiry,
		RememberMeExpiry: DefaultRememberMeExpiry,
	}
}

// Validate checks that both lifetimes are positive.
func (c SessionConfig) Validate() error {
	if c.Expiry <= 0 {
		return oops.Code("SESSION_CONFIG_INVALID").With("expiry", c.Expiry).Errorf("session expiry must be positive")
	}
	if c.RememberMeExpiry <= 0 {
		return oops.Code("SESSION_CONFIG_INVALID").
			With("remember_me_expiry", c.RememberMeExpiry).
			Errorf("remember-me expiry must be positive")
	}
	return nil
}

// ExpiryFor returns the lifetime for a session with the given remember-me state.
func (c SessionConfig) ExpiryFor(rememberMe bool) time.Duration {
	if rememberMe {
		return c.RememberMeExpiry
	}
	return c.Expiry
}

// Client describes the user agent a login attempt came from. Both fields are
// informational and may be empty.
type Client struct {
	UserAgent string
	IPAddress string
}

// WebSession is the browser session issued by a successful login.
type WebSession struct {
	ID         ulid.ULID
	PlayerID   ulid.ULID
	TokenHash  string
	Client     Client
	RememberMe bool
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

// NewWebSession issues a session for playerID at issuedAt that lives for
// lifetime.
func NewWebSession(playerID ulid.ULID, tokenHash string, client Client, rememberMe bool, issuedAt time.Time, lifetime time.Duration) (*WebSession, error) {
	switch {
	case playerID.Compare(ulid.ULID{}) == 0:
		return nil, oops.Code("SESSION_INVALID_PLAYER").Errorf("player ID cannot be zero")
	case tokenHash == "":
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	case lifetime <= 0:
		return nil, oops.Code("SESSION_INVALID_EXPIRY").With("lifetime", lifetime).Errorf("session lifetime must be positive")
	}

	return &WebSession{
		ID:         ulid.Make(),
		PlayerID:   playerID,
		TokenHash:  tokenHash,
		Client:     client,
		RememberMe: rememberMe,
		CreatedAt:  issuedAt,
		LastSeenAt: issuedAt,
		ExpiresAt:  issuedAt.Add(lifetime),
	}, nil
}

// ExpiredAt reports whether the session is no longer usable at t.
func (s *WebSession) ExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// WebSessionRepository persists web sessions.
type WebSessionRepository interface {
	Create(ctx context.Context, session *WebSession) error

	// GetByTokenHash returns ErrNotFound when no session has the hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*WebSession, error)

	// ListByPlayer returns the player's sessions that are unexpired at t,
	// newest first.
	ListByPlayer(ctx context.Context, playerID ulid.ULID, t time.Time) ([]*WebSession, error)

	// Touch records activity on a session.
	Touch(ctx context.Context, id ulid.ULID, t time.Time) error

	// Delete returns ErrNotFound when the session does not exist.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteByPlayer removes every session of the player and returns how
	// many there were.
	DeleteByPlayer(ctx context.Context, playerID ulid.ULID) (int64, error)

	// DeleteExpired removes sessions that expired at or before t.
	DeleteExpired(ctx context.Context, t time.Time) (int64, error)
}
