// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"github.com/spf13/pflag"
)

// Flag names registered by RegisterFlags.
const (
	FlagLogFormat     = "log-format"
	FlagLogLevel      = "log-level"
	FlagDatabaseURL   = "database-url"
	FlagFinder        = "openid-finder"
	FlagAutoRegister  = "openid-auto-register"
	FlagRealm         = "realm"
	FlagSessionExpiry = "session-expiry"
)

// FlagKeys maps flag names to configuration keys.
var FlagKeys = map[string]string{
	FlagLogFormat:     "log.format",
	FlagLogLevel:      "log.level",
	FlagDatabaseURL:   "database.url",
	FlagFinder:        "openid.finder",
	FlagAutoRegister:  "openid.auto_register",
	FlagRealm:         "relying_party.realm",
	FlagSessionExpiry: "session.expiry",
}

// RegisterFlags adds the configuration override flags to fs. Only flags the
// user sets override the file; their defaults are informational.
func RegisterFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.String(FlagLogFormat, def.Log.Format, "log format (json or text)")
	fs.String(FlagLogLevel, def.Log.Level, "log level (debug, info, warn, error)")
	fs.String(FlagDatabaseURL, "", "PostgreSQL connection URL (default $DATABASE_URL)")
	fs.String(FlagFinder, def.OpenID.FinderSelector, "finder used to resolve verified identifiers")
	fs.Bool(FlagAutoRegister, def.OpenID.AutoRegister, "register players for unknown identifiers")
	fs.String(FlagRealm, "", "OpenID realm (default derived from the return URL)")
	fs.Duration(FlagSessionExpiry, def.Session.Expiry, "web session lifetime")
}
