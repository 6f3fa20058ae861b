// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides the login session abstraction that identity
// providers build on.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewOpenIDPlayer - creates a Player bound to a normalized OpenID identifier
//   - NewWebSession - creates a WebSession with validated player and expiry
//
// Direct struct initialization bypasses validation and may create invalid state.
//
// # Login Sessions
//
// A LoginSession is one authentication attempt. It holds the attempted player,
// an ordered list of field errors, and an ordered chain of conditional
// validators. Save runs the chain, persists a WebSession on success and then
// reports the outcome to an optional Completion. A validator may return Halt
// to end the attempt immediately; Save then returns without persisting and
// without invoking the Completion.
//
// Services are created with New*Service constructors that validate dependencies.
package auth
