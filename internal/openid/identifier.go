// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package openid

import (
	"github.com/samber/oops"

	"github.com/holomush/holoid/pkg/errutil"
)

// FieldIdentifier is the field validation errors about the identifier are
// recorded on.
const FieldIdentifier = "openid_identifier"

// CodeInvalidIdentifier marks errors for input that is not an OpenID identifier.
const CodeInvalidIdentifier = "OPENID_INVALID_IDENTIFIER"

// Normalizer turns user input into a canonical OpenID identifier.
// Normalizing an already normalized identifier returns it unchanged.
type Normalizer interface {
	Normalize(raw string) (string, error)
}

// NormalizerFunc adapts a function to Normalizer.
type NormalizerFunc func(raw string) (string, error)

// Normalize implements Normalizer.
func (f NormalizerFunc) Normalize(raw string) (string, error) {
	return f(raw)
}

// ErrInvalidIdentifier creates the error a Normalizer returns for malformed
// input. The message is shown to the user as-is.
func ErrInvalidIdentifier(raw string, cause error) error {
	builder := oops.Code(CodeInvalidIdentifier).With("identifier", raw)
	if cause != nil {
		builder = builder.With("reason", cause.Error())
	}
	return builder.Errorf("%s is not an OpenID identifier", raw)
}

// IsInvalidIdentifier reports whether err was created by ErrInvalidIdentifier.
func IsInvalidIdentifier(err error) bool {
	return errutil.Code(err) == CodeInvalidIdentifier
}
