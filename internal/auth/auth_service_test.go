// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holoid/internal/auth"
	"github.com/holomush/holoid/internal/auth/mocks"
	"github.com/holomush/holoid/pkg/errutil"
)

var serviceNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type serviceFixture struct {
	svc      *auth.Service
	players  *mocks.MockPlayerRepository
	sessions *mocks.MockWebSessionRepository
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	f := serviceFixture{
		players:  mocks.NewMockPlayerRepository(t),
		sessions: mocks.NewMockWebSessionRepository(t),
	}
	svc, err := auth.NewAuthService(f.players, f.sessions, auth.DefaultSessionConfig(),
		auth.WithClock(func() time.Time { return serviceNow }))
	require.NoError(t, err)
	f.svc = svc
	return f
}

// issue returns a token and the stored session it belongs to.
func issue(t *testing.T, expiresIn time.Duration) (string, *auth.WebSession) {
	t.Helper()
	tok, err := auth.NewSessionToken()
	require.NoError(t, err)
	ws, err := auth.NewWebSession(ulid.Make(), tok.Hash, auth.Client{}, false, serviceNow.Add(-time.Hour), time.Hour+expiresIn)
	require.NoError(t, err)
	return tok.Value, ws
}

func TestNewAuthService_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		players  auth.PlayerRepository
		sessions auth.WebSessionRepository
		logger   *slog.Logger
		cfg      auth.SessionConfig
		code     string
		message  string
	}{
		{"nil players", nil, mocks.NewMockWebSessionRepository(t), slog.Default(), auth.DefaultSessionConfig(), "AUTH_INVALID_CONFIG", "players repository is required"},
		{"nil sessions", mocks.NewMockPlayerRepository(t), nil, slog.Default(), auth.DefaultSessionConfig(), "AUTH_INVALID_CONFIG", "sessions repository is required"},
		{"nil logger", mocks.NewMockPlayerRepository(t), mocks.NewMockWebSessionRepository(t), nil, auth.DefaultSessionConfig(), "AUTH_INVALID_CONFIG", "logger is required"},
		{"zero lifetimes", mocks.NewMockPlayerRepository(t), mocks.NewMockWebSessionRepository(t), slog.Default(), auth.SessionConfig{}, "SESSION_CONFIG_INVALID", "expiry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := auth.NewAuthServiceWithLogger(tt.players, tt.sessions, tt.cfg, tt.logger)

			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.message)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}

func TestService_NewLoginSession(t *testing.T) {
	f := newServiceFixture(t)
	client := auth.Client{UserAgent: "curl/8.0", IPAddress: "10.0.0.1"}

	login := f.svc.NewLoginSession(client)

	assert.Equal(t, client, login.Client)
	assert.Nil(t, login.AttemptedPlayer)
	assert.True(t, login.Errors.Empty())
	assert.Same(t, f.players, f.svc.Players())
}

func TestService_ValidateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("live session is touched", func(t *testing.T) {
		f := newServiceFixture(t)
		token, ws := issue(t, time.Hour)
		f.sessions.On("GetByTokenHash", ctx, ws.TokenHash).Return(ws, nil)
		f.sessions.On("Touch", ctx, ws.ID, serviceNow).Return(nil)

		got, err := f.svc.ValidateSession(ctx, token)

		require.NoError(t, err)
		assert.Equal(t, ws.ID, got.ID)
		assert.Equal(t, serviceNow, got.LastSeenAt)
	})

	t.Run("session is expired at its expiry instant", func(t *testing.T) {
		f := newServiceFixture(t)
		token, ws := issue(t, 0)
		f.sessions.On("GetByTokenHash", ctx, ws.TokenHash).Return(ws, nil)

		got, err := f.svc.ValidateSession(ctx, token)

		require.Error(t, err)
		assert.Nil(t, got)
		errutil.AssertErrorCode(t, err, "SESSION_EXPIRED")
		f.sessions.AssertNotCalled(t, "Touch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sessions.On("GetByTokenHash", ctx, auth.HashSessionToken("stale")).Return(nil, auth.ErrNotFound)

		_, err := f.svc.ValidateSession(ctx, "stale")

		errutil.AssertErrorCode(t, err, "SESSION_INVALID")
	})

	t.Run("empty token", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.svc.ValidateSession(ctx, "")

		errutil.AssertErrorCode(t, err, "SESSION_TOKEN_EMPTY")
	})

	t.Run("repository failure", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sessions.On("GetByTokenHash", ctx, mock.Anything).Return(nil, errors.New("database error"))

		_, err := f.svc.ValidateSession(ctx, "token")

		errutil.AssertErrorCode(t, err, "SESSION_VALIDATE_FAILED")
	})

	t.Run("touch failure keeps the session valid", func(t *testing.T) {
		f := newServiceFixture(t)
		token, ws := issue(t, time.Hour)
		lastSeen := ws.LastSeenAt
		f.sessions.On("GetByTokenHash", ctx, ws.TokenHash).Return(ws, nil)
		f.sessions.On("Touch", ctx, ws.ID, serviceNow).Return(errors.New("update failed"))

		got, err := f.svc.ValidateSession(ctx, token)

		require.NoError(t, err)
		assert.Equal(t, lastSeen, got.LastSeenAt)
	})
}

func TestService_ActiveSessions(t *testing.T) {
	ctx := context.Background()
	playerID := ulid.Make()

	t.Run("lists sessions live now", func(t *testing.T) {
		f := newServiceFixture(t)
		_, ws := issue(t, time.Hour)
		f.sessions.On("ListByPlayer", ctx, playerID, serviceNow).Return([]*auth.WebSession{ws}, nil)

		got, err := f.svc.ActiveSessions(ctx, playerID)

		require.NoError(t, err)
		assert.Equal(t, []*auth.WebSession{ws}, got)
	})

	t.Run("repository failure", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sessions.On("ListByPlayer", ctx, playerID, serviceNow).Return(nil, errors.New("database error"))

		_, err := f.svc.ActiveSessions(ctx, playerID)

		errutil.AssertErrorCode(t, err, "SESSION_LIST_FAILED")
		errutil.AssertErrorContext(t, err, "player_id", playerID.String())
	})
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	sessionID := ulid.Make()

	tests := []struct {
		name    string
		repoErr error
		code    string
	}{
		{"deletes the session", nil, ""},
		{"unknown session", auth.ErrNotFound, "SESSION_NOT_FOUND"},
		{"repository failure", errors.New("database error"), "AUTH_LOGOUT_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			f.sessions.On("Delete", ctx, sessionID).Return(tt.repoErr)

			err := f.svc.Logout(ctx, sessionID)

			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}

func TestService_LogoutAll(t *testing.T) {
	ctx := context.Background()
	playerID := ulid.Make()

	t.Run("returns the revoked count", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sessions.On("DeleteByPlayer", ctx, playerID).Return(int64(3), nil)

		n, err := f.svc.LogoutAll(ctx, playerID)

		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("repository failure", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sessions.On("DeleteByPlayer", ctx, playerID).Return(int64(0), errors.New("database error"))

		_, err := f.svc.LogoutAll(ctx, playerID)

		errutil.AssertErrorCode(t, err, "AUTH_LOGOUT_FAILED")
	})
}

func TestService_PruneExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("prunes against the service clock", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sessions.On("DeleteExpired", ctx, serviceNow).Return(int64(7), nil)

		n, err := f.svc.PruneExpired(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
	})

	t.Run("repository failure", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sessions.On("DeleteExpired", ctx, serviceNow).Return(int64(0), errors.New("database error"))

		_, err := f.svc.PruneExpired(ctx)

		errutil.AssertErrorCode(t, err, "SESSION_PRUNE_FAILED")
	})
}
