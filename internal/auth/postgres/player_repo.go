// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holoid/internal/auth"
)

// Querier is the subset of *pgxpool.Pool the repositories use.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// usernameIndex enforces case-insensitive username uniqueness.
const usernameIndex = "idx_players_username_lower"

const playerColumns = `p.id, p.username, p.openid_identifier, p.email,
		       p.login_count, p.last_login_at, p.created_at, p.updated_at`

// PlayerRepository implements auth.PlayerRepository using PostgreSQL.
type PlayerRepository struct {
	pool Querier
}

// NewPlayerRepository creates a new PlayerRepository.
func NewPlayerRepository(pool Querier) *PlayerRepository {
	return &PlayerRepository{pool: pool}
}

// Create stores a new player.
func (r *PlayerRepository) Create(ctx context.Context, player *auth.Player) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO players (
			id, username, openid_identifier, email,
			login_count, last_login_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		player.ID.String(),
		player.Username,
		player.OpenIDIdentifier,
		player.Email,
		player.LoginCount,
		player.LastLoginAt,
		player.CreatedAt,
		player.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return duplicatePlayer(err, "username", player.Username)
	}
	if err != nil {
		return oops.Code("PLAYER_CREATE_FAILED").
			With("operation", "insert player").
			With("username", player.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a player by ID.
func (r *PlayerRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Player, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players p
		WHERE p.id = $1
	`, id.String())

	player, err := r.scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PLAYER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PLAYER_GET_BY_ID_FAILED").
			With("operation", "get player by id").
			With("id", id.String()).
			Wrap(err)
	}
	return player, nil
}

// GetByUsername retrieves a player by username (case-insensitive).
func (r *PlayerRepository) GetByUsername(ctx context.Context, username string) (*auth.Player, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players p
		WHERE LOWER(p.username) = LOWER($1)
	`, username)

	player, err := r.scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PLAYER_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PLAYER_GET_BY_USERNAME_FAILED").
			With("operation", "get player by username").
			With("username", username).
			Wrap(err)
	}
	return player, nil
}

// GetByOpenIDIdentifier retrieves the player whose primary identifier is
// identifier. Identifiers are compared exactly; they are normalized before
// they are stored.
func (r *PlayerRepository) GetByOpenIDIdentifier(ctx context.Context, identifier string) (*auth.Player, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players p
		WHERE p.openid_identifier = $1
	`, identifier)

	player, err := r.scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PLAYER_NOT_FOUND").
			With("openid_identifier", identifier).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PLAYER_GET_BY_OPENID_FAILED").
			With("operation", "get player by openid identifier").
			With("openid_identifier", identifier).
			Wrap(err)
	}
	return player, nil
}

// GetByLinkedOpenIDIdentifier retrieves the player that owns identifier,
// either as its primary identifier or as a linked one.
func (r *PlayerRepository) GetByLinkedOpenIDIdentifier(ctx context.Context, identifier string) (*auth.Player, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players p
		LEFT JOIN player_openid_identifiers l ON l.player_id = p.id
		WHERE p.openid_identifier = $1 OR l.identifier = $1
		LIMIT 1
	`, identifier)

	player, err := r.scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PLAYER_NOT_FOUND").
			With("openid_identifier", identifier).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PLAYER_GET_BY_LINKED_OPENID_FAILED").
			With("operation", "get player by linked openid identifier").
			With("openid_identifier", identifier).
			Wrap(err)
	}
	return player, nil
}

// LinkOpenIDIdentifier associates an additional identifier with a player.
func (r *PlayerRepository) LinkOpenIDIdentifier(ctx context.Context, playerID ulid.ULID, identifier string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO player_openid_identifiers (identifier, player_id, created_at)
		VALUES ($1, $2, $3)
	`, identifier, playerID.String(), time.Now())
	if isUniqueViolation(err) {
		return oops.Code("OPENID_IDENTIFIER_ALREADY_LINKED").
			With("player_id", playerID.String()).
			With("openid_identifier", identifier).
			Wrap(auth.ErrAlreadyExists)
	}
	if pgErr := asPgError(err); pgErr != nil && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return oops.Code("PLAYER_NOT_FOUND").
			With("player_id", playerID.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return oops.Code("OPENID_LINK_FAILED").
			With("operation", "link openid identifier").
			With("player_id", playerID.String()).
			Wrap(err)
	}
	return nil
}

// Update updates an existing player.
func (r *PlayerRepository) Update(ctx context.Context, player *auth.Player) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE players SET
			username = $2,
			openid_identifier = $3,
			email = $4,
			login_count = $5,
			last_login_at = $6,
			updated_at = $7
		WHERE id = $1
	`,
		player.ID.String(),
		player.Username,
		player.OpenIDIdentifier,
		player.Email,
		player.LoginCount,
		player.LastLoginAt,
		player.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return duplicatePlayer(err, "id", player.ID.String(), "username", player.Username)
	}
	if err != nil {
		return oops.Code("PLAYER_UPDATE_FAILED").
			With("operation", "update player").
			With("id", player.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PLAYER_NOT_FOUND").
			With("id", player.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a player. Linked identifiers and web sessions are removed
// by cascade.
func (r *PlayerRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM players WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("PLAYER_DELETE_FAILED").
			With("operation", "delete player").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PLAYER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanPlayer scans a single row into a Player.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *PlayerRepository) scanPlayer(row pgx.Row) (*auth.Player, error) {
	var (
		idStr            string
		username         string
		openIDIdentifier *string
		email            *string
		loginCount       int
		lastLoginAt      *time.Time
		createdAt        time.Time
		updatedAt        time.Time
	)

	err := row.Scan(
		&idStr,
		&username,
		&openIDIdentifier,
		&email,
		&loginCount,
		&lastLoginAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("PLAYER_SCAN_FAILED").
			With("operation", "scan player").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PLAYER_INVALID_ID").
			With("operation", "parse player id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Player{
		ID:               id,
		Username:         username,
		OpenIDIdentifier: openIDIdentifier,
		Email:            email,
		LoginCount:       loginCount,
		LastLoginAt:      lastLoginAt,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}, nil
}

// duplicatePlayer maps a unique violation on players to ErrUsernameTaken or
// ErrAlreadyExists depending on the constraint that fired.
func duplicatePlayer(err error, kv ...any) error {
	constraint := constraintName(err)
	code, target := "PLAYER_ALREADY_EXISTS", auth.ErrAlreadyExists
	if constraint == usernameIndex {
		code, target = "PLAYER_USERNAME_TAKEN", auth.ErrUsernameTaken
	}
	return oops.Code(code).With("constraint", constraint).With(kv...).Wrap(target)
}

func asPgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

func isUniqueViolation(err error) bool {
	pgErr := asPgError(err)
	return pgErr != nil && pgErr.Code == pgerrcode.UniqueViolation
}

func constraintName(err error) string {
	if pgErr := asPgError(err); pgErr != nil {
		return pgErr.ConstraintName
	}
	return ""
}

// Compile-time interface check.
var _ auth.PlayerRepository = (*PlayerRepository)(nil)
