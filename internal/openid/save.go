// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package openid

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/holomush/holoid/internal/auth"
	"github.com/holomush/holoid/pkg/errutil"
)

var tracer = otel.Tracer("github.com/holomush/holoid/internal/openid")

// Result is the final state of a Save.
type Result int

const (
	// ResultNotStarted is returned alongside an infrastructure error.
	ResultNotStarted Result = iota
	// ResultSucceeded means the player was authenticated and a web session
	// was created.
	ResultSucceeded
	// ResultFailedValidation means the attempt ended with entries in Errors.
	ResultFailedValidation
	// ResultBeginningAuthentication means the provider redirected the user
	// agent; the request has been answered.
	ResultBeginningAuthentication
	// ResultNotFoundAutoCreate means the verified identifier matched no
	// player and a registration was attempted.
	ResultNotFoundAutoCreate
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case ResultSucceeded:
		return "succeeded"
	case ResultFailedValidation:
		return "failed_validation"
	case ResultBeginningAuthentication:
		return "beginning_authentication"
	case ResultNotFoundAutoCreate:
		return "not_found_auto_create"
	default:
		return "not_started"
	}
}

// Save runs the login attempt. done is never invoked while a new verification
// is beginning, nor once the request has already been answered, nor on the
// registration path. Validation failures are reported through the Result and
// Errors; the returned error is reserved for infrastructure failures.
func (s *Session) Save(ctx context.Context, done auth.Completion) (Result, error) {
	ctx, span := tracer.Start(ctx, "openid.Session.Save")
	defer span.End()

	s.notFound, s.redirected = false, false

	var callback auth.Completion
	if !s.BeginningAuthentication() && done != nil {
		callback = func(ok bool) {
			if s.req.Responded() {
				return
			}
			done(ok)
		}
	}

	ok, err := s.LoginSession.Save(ctx, callback)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ResultNotStarted, err
	}

	var result Result
	switch {
	case s.notFound:
		result = s.autoRegister(ctx)
	case ok:
		result = ResultSucceeded
	case s.redirected:
		result = ResultBeginningAuthentication
	default:
		result = ResultFailedValidation
	}

	span.SetAttributes(attribute.String("openid.result", result.String()))
	s.auth.metrics.recordSave(result)
	return result, nil
}

// autoRegister clears the provider state left by the completed verification
// and creates a player for the identifier. The outcome is logged and
// otherwise discarded.
func (s *Session) autoRegister(ctx context.Context) Result {
	logger := s.auth.logger.With("identifier", s.identifier)

	if err := s.auth.provider.CleanupSession(ctx, s.req); err != nil {
		errutil.LogErrorContext(ctx, logger, "failed to clean up openid session state", err)
	}
	s.req.DeleteParam(ParamCallbackComplete)

	player, err := s.auth.newPrincipal(s.identifier)
	if err != nil {
		errutil.LogErrorContext(ctx, logger, "cannot register player for identifier", err)
		s.auth.metrics.recordRegistration(registrationInvalid)
		return ResultNotFoundAutoCreate
	}
	s.AttemptedPlayer = player

	if err := s.auth.creator.Create(ctx, player); err != nil {
		errutil.LogErrorContext(ctx, logger, "failed to register player", err)
		s.auth.metrics.recordRegistration(registrationFailed)
		return ResultNotFoundAutoCreate
	}

	logger.InfoContext(ctx, "registered player for openid identifier", "player_id", player.ID.String())
	s.auth.metrics.recordRegistration(registrationCreated)
	return ResultNotFoundAutoCreate
}
