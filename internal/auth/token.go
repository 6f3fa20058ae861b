// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/samber/oops"
)

const sessionTokenBytes = 32

// SessionToken is a bearer token for a web session. Only Hash is stored;
// Value is handed to the client once.
type SessionToken struct {
	Value string
	Hash  string
}

// NewSessionToken draws a random token.
func NewSessionToken() (SessionToken, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return SessionToken{}, oops.Code("SESSION_TOKEN_GENERATE_FAILED").Wrap(err)
	}
	value := base64.RawURLEncoding.EncodeToString(buf)
	return SessionToken{Value: value, Hash: HashSessionToken(value)}, nil
}

// HashSessionToken returns the stored form of a token value.
func HashSessionToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
