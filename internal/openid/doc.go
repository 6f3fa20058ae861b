// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package openid adds OpenID identity verification to auth.LoginSession.
//
// A Session wraps one LoginSession for the lifetime of one request. Assigning
// an identifier (directly or through SetCredentials) normalizes it; Save then
// runs two validators in order:
//
//  1. the identifier validator, which surfaces a normalization failure as a
//     field error on "openid_identifier";
//  2. the OpenID validator, which runs only while nothing has failed and no
//     player has been resolved. Before the provider has called back it asks
//     the Provider to redirect the user agent; after the callback it resolves
//     the verified identifier to a player through the configured Finder.
//
// When the Finder misses and auto-registration is enabled the validator halts
// with a not-found outcome instead of recording an error, and Save creates a
// new player for the identifier. A Provider redirect also halts the chain; in
// that case the caller's Completion is never invoked, so a response is only
// written once per request.
package openid
