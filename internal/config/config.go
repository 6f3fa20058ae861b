// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads holoid's process configuration from a YAML file,
// command-line flags and the DATABASE_URL environment variable.
package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/holoid/internal/auth"
	"github.com/holomush/holoid/internal/logging"
	"github.com/holomush/holoid/internal/openid"
	"github.com/holomush/holoid/internal/openid/relyingparty"
	"github.com/holomush/holoid/internal/store"
	"github.com/holomush/holoid/internal/xdg"
)

// DatabaseURLEnv is read when no database URL is configured.
const DatabaseURLEnv = "DATABASE_URL"

// Config is the complete process configuration.
type Config struct {
	Log          logging.Options     `koanf:"log" yaml:"log"`
	Database     Database            `koanf:"database" yaml:"database"`
	OpenID       openid.Config       `koanf:"openid" yaml:"openid"`
	RelyingParty relyingparty.Config `koanf:"relying_party" yaml:"relying_party"`
	Session      auth.SessionConfig  `koanf:"session" yaml:"session"`
}

// Database configures the PostgreSQL connection.
type Database struct {
	URL            string        `koanf:"url" yaml:"url"`
	ConnectRetries uint64        `koanf:"connect_retries" yaml:"connect_retries"`
	ConnectBackoff time.Duration `koanf:"connect_backoff" yaml:"connect_backoff"`
}

// ConnectOptions returns the store options for this database.
func (d Database) ConnectOptions() store.ConnectOptions {
	return store.ConnectOptions{MaxRetries: d.ConnectRetries, Backoff: d.ConnectBackoff}
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Log: logging.Options{Format: logging.FormatJSON, Level: "info"},
		Database: Database{
			ConnectRetries: store.DefaultConnectRetries,
			ConnectBackoff: store.DefaultConnectBackoff,
		},
		OpenID:  openid.DefaultConfig(),
		Session: auth.DefaultSessionConfig(),
	}
}

// Validate checks every section. The database URL is not required here;
// commands that need it call RequireDatabaseURL.
func (c Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.OpenID.Validate(); err != nil {
		return err
	}
	if err := c.RelyingParty.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if c.Database.ConnectBackoff < 0 {
		return oops.Code("CONFIG_INVALID").
			With("connect_backoff", c.Database.ConnectBackoff).
			Errorf("database connect backoff cannot be negative")
	}
	return nil
}

// RequireDatabaseURL returns the database URL or a CONFIG_INVALID error.
func (c Config) RequireDatabaseURL() (string, error) {
	if c.Database.URL == "" {
		return "", oops.Code("CONFIG_INVALID").
			Errorf("database url is required (set database.url, --database-url or %s)", DatabaseURLEnv)
	}
	return c.Database.URL, nil
}

// Redacted returns a copy safe to print: the database password is masked.
func (c Config) Redacted() Config {
	u, err := url.Parse(c.Database.URL)
	if err != nil || u.User == nil {
		return c
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
		c.Database.URL = u.String()
	}
	return c
}

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML file at path, the DATABASE_URL environment variable (only when
// no URL is configured), and flags changed on the command line. An empty
// path selects the XDG config file, which may be absent.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		if p, err := xdg.ConfigFile(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := loadFile(k, path, explicit); err != nil {
			return Config{}, err
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_FAILED").With("operation", "load flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").With("operation", "decode configuration").Wrap(err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv(DatabaseURLEnv)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(k *koanf.Koanf, path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
