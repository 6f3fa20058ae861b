// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package openid

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/holoid/internal/auth"
)

// MsgNoMatchingPlayer is recorded on FieldIdentifier when a verified
// identifier matches no player and auto-registration is off.
const MsgNoMatchingPlayer = "did not match any users in our database, have you set up your account to use OpenID?"

// MsgIdentifierMismatch is recorded on the base when the provider verified an
// identifier other than the one the session looked up.
const MsgIdentifierMismatch = "OpenID verification failed"

// Session is a LoginSession augmented with OpenID verification. It serves
// exactly one request.
type Session struct {
	*auth.LoginSession

	auth *Authenticator
	req  Request

	identifier      string
	identifierError string

	// Set by the OpenID validator when it halts the chain.
	notFound   bool
	redirected bool
}

// Identifier returns the normalized identifier, or "" when none is set.
func (s *Session) Identifier() string {
	return s.identifier
}

// IdentifierError returns the normalization failure message of the last
// assignment, or "".
func (s *Session) IdentifierError() string {
	return s.identifierError
}

// SetIdentifier normalizes raw and stores the result. Blank input clears the
// identifier without normalizing. A normalization failure clears the
// identifier and records the failure message instead.
func (s *Session) SetIdentifier(raw string) {
	if strings.TrimSpace(raw) == "" {
		s.identifier, s.identifierError = "", ""
		return
	}

	normalized, err := s.auth.normalizer.Normalize(raw)
	if err != nil {
		if !IsInvalidIdentifier(err) {
			err = ErrInvalidIdentifier(raw, err)
		}
		s.identifier, s.identifierError = "", err.Error()
		return
	}
	s.identifier, s.identifierError = normalized, ""
}

// SetCredentials hands payload to the base session, then assigns the
// identifier when the first map in payload carries one. Keys match
// case-insensitively, ignoring '_' and '-', so "openid_identifier" and
// "openidIdentifier" are equivalent.
func (s *Session) SetCredentials(payload any) {
	s.LoginSession.SetCredentials(payload)

	fields := firstMap(payload)
	if fields == nil {
		return
	}
	if raw, ok := identifierField(fields); ok {
		s.SetIdentifier(raw)
	}
}

// AuthenticatingWithOpenID reports whether the OpenID validator should run:
// nothing has failed, no player is resolved yet, and there is either an
// identifier to verify or a provider callback addressed to the session.
func (s *Session) AuthenticatingWithOpenID() bool {
	return s.AttemptedPlayer == nil &&
		s.Errors.Empty() &&
		(s.identifier != "" || (s.callbackCompleted() && flag(s.req, ParamForSession)))
}

// BeginningAuthentication reports whether a save would start a new
// verification, which answers the request with a redirect.
func (s *Session) BeginningAuthentication() bool {
	return s.AttemptedPlayer == nil && s.Errors.Empty() && s.identifier != ""
}

func (s *Session) callbackCompleted() bool {
	return flag(s.req, ParamCallbackComplete)
}

func (s *Session) validateIdentifierError(context.Context) (auth.Verdict, error) {
	if s.identifierError != "" {
		s.Errors.Add(FieldIdentifier, s.identifierError)
	}
	return auth.Continue, nil
}

func (s *Session) validateByOpenID(ctx context.Context) (auth.Verdict, error) {
	if v, ok := s.req.Param(ParamRememberMe); ok {
		s.RememberMe = v == "true"
	}

	if s.callbackCompleted() {
		if s.identifier == "" {
			// Provider output is trusted as-is.
			s.identifier = s.claimedIdentifier()
		}

		found, err := lookup(ctx, s.auth.finder, s.identifier)
		if err != nil {
			return auth.Halt, oops.Code("OPENID_LOOKUP_FAILED").
				With("finder", s.auth.cfg.FinderSelector).
				With("identifier", s.identifier).
				Wrap(err)
		}
		if found.Outcome == LookupNotFound {
			if s.auth.cfg.AutoRegister {
				s.notFound = true
				return auth.Halt, nil
			}
			s.Errors.Add(FieldIdentifier, MsgNoMatchingPlayer)
			return auth.Continue, nil
		}
		s.AttemptedPlayer = found.Player
	}

	resp, err := s.auth.provider.Authenticate(ctx, s.req, s.identifier, s.returnTo())
	if err != nil {
		return auth.Halt, oops.Code("OPENID_PROVIDER_FAILED").
			With("identifier", s.identifier).
			Wrap(err)
	}

	switch resp.Status {
	case StatusRedirected:
		// The response has been produced; nothing else may run.
		s.redirected = true
		return auth.Halt, nil
	case StatusUnsuccessful:
		s.Errors.AddToBase(resp.Message)
	case StatusSuccessful:
		if !s.verifiedMatches(resp.Identifier) {
			s.auth.logger.WarnContext(ctx, "verified identifier does not match session identifier",
				"identifier", s.identifier,
				"verified", resp.Identifier)
			s.AttemptedPlayer = nil
			s.Errors.AddToBase(MsgIdentifierMismatch)
		}
	}
	return auth.Continue, nil
}

// verifiedMatches reports whether the identifier a provider verified is the
// one the session resolved its player from. Providers that report no
// identifier are trusted.
func (s *Session) verifiedMatches(verified string) bool {
	if verified == "" || verified == s.identifier {
		return true
	}
	normalized, err := s.auth.normalizer.Normalize(verified)
	return err == nil && normalized == s.identifier
}

func (s *Session) claimedIdentifier() string {
	if v, ok := s.req.Param(ParamClaimedID); ok && v != "" {
		return v
	}
	v, _ := s.req.Param(ParamIdentity)
	return v
}

func (s *Session) returnTo() string {
	return s.req.URLFor(map[string]string{
		ParamForSession: "1",
		ParamRememberMe: strconv.FormatBool(s.RememberMe),
	})
}

// firstMap returns payload itself when it is a map, or the first element of
// payload when it is a slice whose first element is a map.
func firstMap(payload any) map[string]any {
	if m := asMap(payload); m != nil {
		return m
	}
	switch p := payload.(type) {
	case []any:
		if len(p) > 0 {
			return asMap(p[0])
		}
	case []map[string]any:
		if len(p) > 0 {
			return p[0]
		}
	case []map[string]string:
		if len(p) > 0 {
			return asMap(p[0])
		}
	}
	return nil
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	return nil
}

var identifierKey = canonicalKey(FieldIdentifier)

func canonicalKey(key string) string {
	return strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(key))
}

// identifierField finds the identifier entry in fields. When several keys
// match, the lexically smallest wins so the choice is stable.
func identifierField(fields map[string]any) (string, bool) {
	var keys []string
	for k := range fields {
		if canonicalKey(k) == identifierKey {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.Strings(keys)

	switch v := fields[keys[0]].(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}
