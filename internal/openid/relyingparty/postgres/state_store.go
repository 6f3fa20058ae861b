// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres stores in-flight OpenID verification state in PostgreSQL
// so a callback may be served by any process.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/holomush/holoid/internal/openid/relyingparty"
)

// Querier is the subset of *pgxpool.Pool the store uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type stateRow struct {
	Identifier string    `db:"identifier"`
	ClaimedID  string    `db:"claimed_id"`
	ReturnTo   string    `db:"return_to"`
	ExpiresAt  time.Time `db:"expires_at"`
}

// StateStore implements relyingparty.StateStore on the openid_states table.
type StateStore struct {
	pool Querier
}

// NewStateStore creates a StateStore.
func NewStateStore(pool Querier) *StateStore {
	return &StateStore{pool: pool}
}

// Put implements relyingparty.StateStore.
func (s *StateStore) Put(ctx context.Context, token string, st relyingparty.State) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO openid_states (token, identifier, claimed_id, return_to, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, token, st.Identifier, st.ClaimedID, st.ReturnTo, st.ExpiresAt)
	if err != nil {
		return oops.Code("OPENID_STATE_PUT_FAILED").With("identifier", st.Identifier).Wrap(err)
	}
	return nil
}

// Get implements relyingparty.StateStore.
func (s *StateStore) Get(ctx context.Context, token string) (relyingparty.State, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT identifier, claimed_id, return_to, expires_at
		FROM openid_states WHERE token = $1
	`, token)
	if err != nil {
		return relyingparty.State{}, oops.Code("OPENID_STATE_GET_FAILED").Wrap(err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[stateRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return relyingparty.State{}, relyingparty.ErrStateNotFound
	}
	if err != nil {
		return relyingparty.State{}, oops.Code("OPENID_STATE_GET_FAILED").Wrap(err)
	}
	return relyingparty.State(row), nil
}

// Delete implements relyingparty.StateStore.
func (s *StateStore) Delete(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM openid_states WHERE token = $1`, token); err != nil {
		return oops.Code("OPENID_STATE_DELETE_FAILED").Wrap(err)
	}
	return nil
}

// DeleteExpired removes states that expired at or before t.
func (s *StateStore) DeleteExpired(ctx context.Context, t time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM openid_states WHERE expires_at <= $1`, t)
	if err != nil {
		return 0, oops.Code("OPENID_STATE_PRUNE_FAILED").Wrap(err)
	}
	return tag.RowsAffected(), nil
}

var _ relyingparty.StateStore = (*StateStore)(nil)
