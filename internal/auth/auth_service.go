// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service issues login sessions and manages the web sessions they create.
type Service struct {
	players  PlayerRepository
	sessions WebSessionRepository
	cfg      SessionConfig
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock replaces the time source used for logins and expiry checks.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewAuthService creates a new Service using the default logger.
func NewAuthService(players PlayerRepository, sessions WebSessionRepository, cfg SessionConfig, opts ...ServiceOption) (*Service, error) {
	return NewAuthServiceWithLogger(players, sessions, cfg, slog.Default(), opts...)
}

// NewAuthServiceWithLogger creates a new Service with an explicit logger.
func NewAuthServiceWithLogger(players PlayerRepository, sessions WebSessionRepository, cfg SessionConfig, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if players == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("players repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("sessions repository is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Wrap(err)
	}

	s := &Service{
		players:  players,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Players returns the player repository the service persists logins to.
func (s *Service) Players() PlayerRepository {
	return s.players
}

// NewLoginSession starts an authentication attempt for one request.
func (s *Service) NewLoginSession(client Client) *LoginSession {
	return &LoginSession{
		Client:   client,
		players:  s.players,
		sessions: s.sessions,
		cfg:      s.cfg,
		logger:   s.logger,
		now:      s.now,
	}
}

// ValidateSession resolves a token to its web session and records activity
// on it. Unknown and expired tokens are rejected.
func (s *Service) ValidateSession(ctx context.Context, token string) (*WebSession, error) {
	if token == "" {
		return nil, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Errorf("invalid session token")
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	now := s.now()
	if session.ExpiredAt(now) {
		return nil, oops.Code("SESSION_EXPIRED").
			With("session_id", session.ID.String()).
			Errorf("session has expired")
	}

	if err := s.sessions.Touch(ctx, session.ID, now); err != nil {
		// The session stays valid; only the activity stamp is lost.
		s.logger.WarnContext(ctx, "failed to record session activity",
			"session_id", session.ID.String(),
			"error", err,
		)
	} else {
		session.LastSeenAt = now
	}
	return session, nil
}

// ActiveSessions lists the player's unexpired web sessions.
func (s *Service) ActiveSessions(ctx context.Context, playerID ulid.ULID) ([]*WebSession, error) {
	sessions, err := s.sessions.ListByPlayer(ctx, playerID, s.now())
	if err != nil {
		return nil, oops.Code("SESSION_LIST_FAILED").
			With("player_id", playerID.String()).
			Wrap(err)
	}
	return sessions, nil
}

// Logout invalidates a web session.
func (s *Service) Logout(ctx context.Context, sessionID ulid.ULID) error {
	err := s.sessions.Delete(ctx, sessionID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return oops.Code("SESSION_NOT_FOUND").
			With("session_id", sessionID.String()).
			Wrap(err)
	default:
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
}

// LogoutAll invalidates every web session of a player and returns how many
// were removed.
func (s *Service) LogoutAll(ctx context.Context, playerID ulid.ULID) (int64, error) {
	n, err := s.sessions.DeleteByPlayer(ctx, playerID)
	if err != nil {
		return 0, oops.Code("AUTH_LOGOUT_FAILED").
			With("player_id", playerID.String()).
			Wrap(err)
	}
	s.logger.InfoContext(ctx, "revoked player sessions", "player_id", playerID.String(), "count", n)
	return n, nil
}

// PruneExpired removes web sessions that have expired.
func (s *Service) PruneExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, oops.Code("SESSION_PRUNE_FAILED").Wrap(err)
	}
	return n, nil
}
