// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/holoid/internal/config"
	"github.com/holomush/holoid/internal/logging"
)

const serviceName = "holoid"

// cli carries state shared by subcommands once the configuration is loaded.
type cli struct {
	configFile string
	cfg        config.Config
	logger     *slog.Logger
}

// NewRootCmd creates the root command for the holoid CLI.
func NewRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:   "holoid",
		Short: "holoid - OpenID login for HoloMUSH players",
		Long: `holoid signs players in with OpenID. It normalizes identifiers,
resolves verified identifiers to players and manages the PostgreSQL schema
that stores players, linked identifiers and web sessions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&c.configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/holoid/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newNormalizeCmd(c))
	cmd.AddCommand(newConfigCmd(c))
	cmd.AddCommand(newMigrateCmd(c))
	cmd.AddCommand(newSessionsCmd(c))
	cmd.AddCommand(newPlayersCmd(c))
	cmd.AddCommand(newLoginCmd(c))

	return cmd
}

func (c *cli) load(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logging.SetDefault(serviceName, version, cfg.Log, cmd.ErrOrStderr())
	return nil
}
