// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

var usernameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Player represents a player account.
type Player struct {
	ID               ulid.ULID
	Username         string
	OpenIDIdentifier *string
	Email            *string
	LoginCount       int
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewOpenIDPlayer creates a Player for a normalized OpenID identifier.
// The username is derived from the identifier's host and path.
func NewOpenIDPlayer(identifier string) (*Player, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, oops.Code("PLAYER_INVALID_IDENTIFIER").Errorf("openid identifier cannot be empty")
	}

	username := UsernameFromIdentifier(identifier)
	if err := ValidateUsername(username); err != nil {
		return nil, oops.Code("PLAYER_INVALID_IDENTIFIER").
			With("identifier", identifier).
			Wrap(err)
	}

	now := time.Now()
	id := identifier
	return &Player{
		ID:               ulid.Make(),
		Username:         username,
		OpenIDIdentifier: &id,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// UsernameFromIdentifier derives a username candidate from an identifier URL.
// "http://alice.example/" becomes "alice_example". The result is not
// guaranteed to be unique.
func UsernameFromIdentifier(identifier string) string {
	raw := identifier
	if u, err := url.Parse(identifier); err == nil && u.Host != "" {
		raw = u.Host + u.Path
	}
	name := strings.Trim(usernameUnsafe.ReplaceAllString(raw, "_"), "_")
	if name == "" || !isLetter(name[0]) {
		name = "u_" + name
	}
	if len(name) > MaxUsernameLength {
		name = strings.TrimRight(name[:MaxUsernameLength], "_")
	}
	for len(name) < MinUsernameLength {
		name += "_"
	}
	return name
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// RecordLogin counts a successful login at t.
func (p *Player) RecordLogin(t time.Time) {
	p.LoginCount++
	p.LastLoginAt = &t
	p.UpdatedAt = t
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// PlayerRepository manages player persistence.
type PlayerRepository interface {
	// Create stores a new player.
	// Returns ErrAlreadyExists if the username or identifier is taken.
	Create(ctx context.Context, player *Player) error

	// GetByID retrieves a player by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Player, error)

	// GetByUsername retrieves a player by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*Player, error)

	// GetByOpenIDIdentifier retrieves the player whose primary OpenID
	// identifier matches exactly. Returns ErrNotFound on a miss.
	GetByOpenIDIdentifier(ctx context.Context, identifier string) (*Player, error)

	// GetByLinkedOpenIDIdentifier retrieves the player that has linked the
	// identifier as one of several. Returns ErrNotFound on a miss.
	GetByLinkedOpenIDIdentifier(ctx context.Context, identifier string) (*Player, error)

	// LinkOpenIDIdentifier attaches an additional identifier to a player.
	LinkOpenIDIdentifier(ctx context.Context, playerID ulid.ULID, identifier string) error

	// Update updates an existing player.
	Update(ctx context.Context, player *Player) error

	// Delete removes a player.
	Delete(ctx context.Context, id ulid.ULID) error
}
