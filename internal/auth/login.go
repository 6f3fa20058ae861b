// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/holoid/pkg/errutil"
)

// MsgNoDetails is recorded when the validator chain neither failed nor
// resolved a player.
const MsgNoDetails = "You did not provide any details for authentication."

// Verdict tells the validator chain whether to keep going.
type Verdict int

const (
	// Continue runs the next validator.
	Continue Verdict = iota
	// Halt ends the attempt. Save returns without persisting anything and
	// without invoking its Completion.
	Halt
)

// ValidateFunc is one step of the validator chain. A returned error is an
// infrastructure failure and aborts Save; validation problems are recorded
// on the session's Errors instead.
type ValidateFunc func(ctx context.Context) (Verdict, error)

// Completion receives the outcome of a Save that ran to completion.
type Completion func(ok bool)

type validator struct {
	name string
	cond func() bool
	run  ValidateFunc
}

// LoginSession is a single authentication attempt. It is request-scoped and
// must not be shared between goroutines.
type LoginSession struct {
	// Errors collects validation messages for the current attempt.
	Errors Errors
	// AttemptedPlayer is the player this attempt resolved to, if any.
	AttemptedPlayer *Player
	// RememberMe selects the long session lifetime on success.
	RememberMe bool

	// Client is recorded on the web session a successful login creates.
	Client Client

	players  PlayerRepository
	sessions WebSessionRepository
	cfg      SessionConfig
	logger   *slog.Logger
	now      func() time.Time

	credentials any
	validators  []validator

	session *WebSession
	token   string
}

// SetCredentials records the raw credentials payload. The base session does
// not interpret it; augmenting layers read the fields they understand.
func (s *LoginSession) SetCredentials(payload any) {
	s.credentials = payload
}

// Credentials returns the payload passed to SetCredentials.
func (s *LoginSession) Credentials() any {
	return s.credentials
}

// Validate appends an unconditional validator to the chain.
func (s *LoginSession) Validate(name string, run ValidateFunc) {
	s.ValidateIf(name, nil, run)
}

// ValidateIf appends a validator that runs only when cond holds at the time
// the chain reaches it. A nil cond always holds.
func (s *LoginSession) ValidateIf(name string, cond func() bool, run ValidateFunc) {
	s.validators = append(s.validators, validator{name: name, cond: cond, run: run})
}

// Valid clears previous errors and runs the validator chain in order.
// It returns Halt as soon as a validator halts.
func (s *LoginSession) Valid(ctx context.Context) (Verdict, error) {
	s.Errors.Clear()

	for _, v := range s.validators {
		if v.cond != nil && !v.cond() {
			continue
		}
		verdict, err := v.run(ctx)
		if err != nil {
			return Halt, oops.Code("AUTH_VALIDATION_FAILED").
				With("validator", v.name).
				Wrap(err)
		}
		if verdict == Halt {
			s.logger.DebugContext(ctx, "validator halted login attempt", "validator", v.name)
			return Halt, nil
		}
	}

	if s.Errors.Empty() && s.AttemptedPlayer == nil {
		s.Errors.AddToBase(MsgNoDetails)
	}
	return Continue, nil
}

// Save validates the attempt and, when it is valid, records the login and
// creates a web session. done is called with the outcome unless a validator
// halted the attempt or an infrastructure error occurred.
func (s *LoginSession) Save(ctx context.Context, done Completion) (bool, error) {
	verdict, err := s.Valid(ctx)
	if err != nil {
		return false, err
	}
	if verdict == Halt {
		return false, nil
	}

	ok := s.Errors.Empty()
	if ok {
		if err := s.persist(ctx); err != nil {
			return false, err
		}
	}

	if done != nil {
		done(ok)
	}
	return ok, nil
}

// WebSession returns the session created by a successful Save.
func (s *LoginSession) WebSession() *WebSession {
	return s.session
}

// Token returns the plaintext token of the session created by a successful Save.
func (s *LoginSession) Token() string {
	return s.token
}

func (s *LoginSession) persist(ctx context.Context) error {
	player := s.AttemptedPlayer
	now := s.now()

	player.RecordLogin(now)
	if err := s.players.Update(ctx, player); err != nil {
		// Login succeeds even if the counters cannot be written.
		errutil.LogError(s.logger, "failed to record login", err)
	}

	token, err := NewSessionToken()
	if err != nil {
		return oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewWebSession(player.ID, token.Hash, s.Client, s.RememberMe, now, s.cfg.ExpiryFor(s.RememberMe))
	if err != nil {
		return oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create web session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("player_id", player.ID.String()).
			Wrap(err)
	}

	s.session = session
	s.token = token.Value
	return nil
}
