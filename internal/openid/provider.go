// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package openid

import (
	"context"
	"errors"

	"github.com/holomush/holoid/internal/auth"
)

// Status is the outcome of a Provider.Authenticate call.
type Status int

const (
	// StatusUnsuccessful means verification failed; Response.Message says why.
	StatusUnsuccessful Status = iota
	// StatusSuccessful means the provider verified the identifier.
	StatusSuccessful
	// StatusRedirected means the provider answered the request with a
	// redirect. Nothing else may be written to the response.
	StatusRedirected
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccessful:
		return "successful"
	case StatusRedirected:
		return "redirected"
	default:
		return "unsuccessful"
	}
}

// Response is returned by Provider.Authenticate.
type Response struct {
	Status Status
	// Message is the user-facing reason for an unsuccessful result.
	Message string
	// Identifier is the identifier the provider verified, if any.
	Identifier string
}

// Provider performs OpenID discovery and verification.
type Provider interface {
	// Authenticate starts verification of identifier, redirecting the user
	// agent and returning StatusRedirected, or completes it when the request
	// carries the provider's callback. returnTo is where the provider sends
	// the user agent back to. Errors are reserved for infrastructure failures.
	Authenticate(ctx context.Context, req Request, identifier, returnTo string) (Response, error)

	// CleanupSession removes any state the provider stored on req.
	CleanupSession(ctx context.Context, req Request) error
}

// PrincipalCreator persists a newly registered player.
// auth.PlayerRepository satisfies it.
type PrincipalCreator interface {
	Create(ctx context.Context, player *auth.Player) error
}

// LookupOutcome distinguishes a resolved identifier from a miss.
type LookupOutcome int

const (
	// LookupFound means the finder returned a player.
	LookupFound LookupOutcome = iota
	// LookupNotFound means no player matches the identifier.
	LookupNotFound
)

// Lookup is the result of resolving an identifier.
type Lookup struct {
	Outcome LookupOutcome
	Player  *auth.Player
}

func lookup(ctx context.Context, finder Finder, identifier string) (Lookup, error) {
	if identifier == "" {
		return Lookup{Outcome: LookupNotFound}, nil
	}
	player, err := finder(ctx, identifier)
	switch {
	case errors.Is(err, auth.ErrNotFound):
		return Lookup{Outcome: LookupNotFound}, nil
	case err != nil:
		return Lookup{}, err
	case player == nil:
		return Lookup{Outcome: LookupNotFound}, nil
	}
	return Lookup{Outcome: LookupFound, Player: player}, nil
}
