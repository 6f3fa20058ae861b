// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holoid/internal/auth"
)

const sessionColumns = `id, player_id, token_hash, user_agent, ip_address,
		       remember_me, created_at, last_seen_at, expires_at`

// sessionRow is the web_sessions row shape.
type sessionRow struct {
	ID         string    `db:"id"`
	PlayerID   string    `db:"player_id"`
	TokenHash  string    `db:"token_hash"`
	UserAgent  string    `db:"user_agent"`
	IPAddress  string    `db:"ip_address"`
	RememberMe bool      `db:"remember_me"`
	CreatedAt  time.Time `db:"created_at"`
	LastSeenAt time.Time `db:"last_seen_at"`
	ExpiresAt  time.Time `db:"expires_at"`
}

func (r sessionRow) toWebSession() (*auth.WebSession, error) {
	id, err := ulid.Parse(r.ID)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").With("id", r.ID).Wrap(err)
	}
	playerID, err := ulid.Parse(r.PlayerID)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_PLAYER_ID").With("player_id", r.PlayerID).Wrap(err)
	}
	return &auth.WebSession{
		ID:         id,
		PlayerID:   playerID,
		TokenHash:  r.TokenHash,
		Client:     auth.Client{UserAgent: r.UserAgent, IPAddress: r.IPAddress},
		RememberMe: r.RememberMe,
		CreatedAt:  r.CreatedAt,
		LastSeenAt: r.LastSeenAt,
		ExpiresAt:  r.ExpiresAt,
	}, nil
}

// WebSessionRepository implements auth.WebSessionRepository using PostgreSQL.
type WebSessionRepository struct {
	pool Querier
}

// NewWebSessionRepository creates a new WebSessionRepository.
func NewWebSessionRepository(pool Querier) *WebSessionRepository {
	return &WebSessionRepository{pool: pool}
}

// Create stores a new web session.
func (r *WebSessionRepository) Create(ctx context.Context, session *auth.WebSession) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO web_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		session.ID.String(),
		session.PlayerID.String(),
		session.TokenHash,
		session.Client.UserAgent,
		session.Client.IPAddress,
		session.RememberMe,
		session.CreatedAt,
		session.LastSeenAt,
		session.ExpiresAt,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("player_id", session.PlayerID.String()).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *WebSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.WebSession, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+sessionColumns+` FROM web_sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").Wrap(err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[sessionRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").Wrap(err)
	}
	return row.toWebSession()
}

// ListByPlayer returns the player's sessions unexpired at t, newest first.
func (r *WebSessionRepository) ListByPlayer(ctx context.Context, playerID ulid.ULID, t time.Time) ([]*auth.WebSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM web_sessions
		WHERE player_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
	`, playerID.String(), t)
	if err != nil {
		return nil, oops.Code("SESSION_LIST_FAILED").With("player_id", playerID.String()).Wrap(err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[sessionRow])
	if err != nil {
		return nil, oops.Code("SESSION_LIST_FAILED").With("player_id", playerID.String()).Wrap(err)
	}

	sessions := make([]*auth.WebSession, 0, len(collected))
	for _, row := range collected {
		ws, err := row.toWebSession()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, ws)
	}
	return sessions, nil
}

// Touch sets last_seen_at.
func (r *WebSessionRepository) Touch(ctx context.Context, id ulid.ULID, t time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE web_sessions SET last_seen_at = $2 WHERE id = $1`, id.String(), t)
	if err != nil {
		return oops.Code("SESSION_TOUCH_FAILED").With("id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a session by ID.
func (r *WebSessionRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM web_sessions WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteByPlayer removes every session of a player. A player without
// sessions is not an error.
func (r *WebSessionRepository) DeleteByPlayer(ctx context.Context, playerID ulid.ULID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM web_sessions WHERE player_id = $1`, playerID.String())
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_BY_PLAYER_FAILED").With("player_id", playerID.String()).Wrap(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteExpired removes sessions that expired at or before t.
func (r *WebSessionRepository) DeleteExpired(ctx context.Context, t time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM web_sessions WHERE expires_at <= $1`, t)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").Wrap(err)
	}
	return tag.RowsAffected(), nil
}

var _ auth.WebSessionRepository = (*WebSessionRepository)(nil)
