// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when creating an entity that collides with an
// existing one.
var ErrAlreadyExists = errors.New("already exists")

// ErrUsernameTaken is returned when a username collides case-insensitively
// with an existing player's. It matches ErrAlreadyExists.
var ErrUsernameTaken = fmt.Errorf("username taken: %w", ErrAlreadyExists)
