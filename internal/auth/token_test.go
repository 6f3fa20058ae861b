// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holoid/internal/auth"
)

func TestNewSessionToken(t *testing.T) {
	tok, err := auth.NewSessionToken()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(tok.Value)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.Equal(t, auth.HashSessionToken(tok.Value), tok.Hash)

	other, err := auth.NewSessionToken()
	require.NoError(t, err)
	assert.NotEqual(t, tok.Value, other.Value)
}

func TestHashSessionToken(t *testing.T) {
	assert.Equal(t, auth.HashSessionToken("abc"), auth.HashSessionToken("abc"))
	assert.NotEqual(t, auth.HashSessionToken("abc"), auth.HashSessionToken("abd"))
	assert.Len(t, auth.HashSessionToken("abc"), 64)
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", auth.HashSessionToken("abc"))
}
