// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package openid

import (
	"context"
	"sort"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/holoid/internal/auth"
)

// Finder selectors registered by PlayerFinders.
const (
	// FinderByIdentifier looks players up by their primary identifier.
	FinderByIdentifier = "find_by_openid_identifier"
	// FinderByLinkedIdentifier looks players up by any identifier they linked.
	FinderByLinkedIdentifier = "find_by_linked_openid_identifier"

	DefaultFinderSelector = FinderByIdentifier
)

// Config is the process-wide OpenID configuration. It is built once before
// requests are served and treated as read-only afterwards.
type Config struct {
	// FinderSelector names the Finder used to resolve verified identifiers.
	FinderSelector string `koanf:"finder" yaml:"finder"`
	// AutoRegister creates a player when a verified identifier matches none.
	AutoRegister bool `koanf:"auto_register" yaml:"auto_register"`
}

// DefaultConfig returns the defaults: primary-identifier lookup, no
// auto-registration.
func DefaultConfig() Config {
	return Config{FinderSelector: DefaultFinderSelector}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.FinderSelector) == "" {
		return oops.Code("OPENID_CONFIG_INVALID").Errorf("finder selector cannot be empty")
	}
	return nil
}

// Finder resolves a verified identifier to a player. A miss is reported by
// returning an error that wraps auth.ErrNotFound.
type Finder func(ctx context.Context, identifier string) (*auth.Player, error)

// Finders maps selector names to Finder implementations.
type Finders map[string]Finder

// PlayerFinders returns the finders backed by a player repository.
func PlayerFinders(players auth.PlayerRepository) Finders {
	return Finders{
		FinderByIdentifier:       players.GetByOpenIDIdentifier,
		FinderByLinkedIdentifier: players.GetByLinkedOpenIDIdentifier,
	}
}

// Resolve returns the finder registered under selector.
func (f Finders) Resolve(selector string) (Finder, error) {
	finder, ok := f[selector]
	if !ok || finder == nil {
		return nil, oops.Code("OPENID_UNKNOWN_FINDER").
			With("finder", selector).
			With("available", f.names()).
			Errorf("unknown finder %q", selector)
	}
	return finder, nil
}

func (f Finders) names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
