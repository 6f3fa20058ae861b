// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DefaultUsernameAttempts is how many alternate usernames a Registrar tries
// after the derived one is taken.
const DefaultUsernameAttempts = 5

const usernameSuffixLength = 6

// Registrar creates players. Derived usernames are not unique, so a
// collision is retried under an alternate username.
type Registrar struct {
	players  PlayerRepository
	attempts uint64
	logger   *slog.Logger
}

// NewRegistrar returns a Registrar that persists to players.
func NewRegistrar(players PlayerRepository, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{players: players, attempts: DefaultUsernameAttempts, logger: logger}
}

// Create stores player. When its username is taken the username is replaced
// by AlternateUsername and the insert is retried. Other failures are
// returned as-is.
func (r *Registrar) Create(ctx context.Context, player *Player) error {
	base := player.Username
	attempt := 0

	backoff := retry.WithMaxRetries(r.attempts, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if attempt > 0 {
			player.Username = AlternateUsername(base, ulid.Make())
		}
		attempt++

		err := r.players.Create(ctx, player)
		if errors.Is(err, ErrUsernameTaken) {
			r.logger.DebugContext(ctx, "username taken",
				"username", player.Username,
				"attempt", attempt)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return oops.With("username", base).With("attempts", attempt).Wrap(err)
	}
	return nil
}

// AlternateUsername derives a username from base that differs from it by a
// suffix taken from id. The result satisfies ValidateUsername whenever base
// does.
func AlternateUsername(base string, id ulid.ULID) string {
	s := id.String()
	suffix := "_" + strings.ToLower(s[len(s)-usernameSuffixLength:])
	if limit := MaxUsernameLength - len(suffix); len(base) > limit {
		base = strings.TrimRight(base[:limit], "_")
	}
	return base + suffix
}
