// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoid/internal/store"
)

// Migrator is the part of store.Migrator the migrate commands use.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// MigrateDeps contains injectable dependencies for the migrate commands.
// All fields with nil values will use their default implementations.
type MigrateDeps struct {
	// MigratorFactory creates a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)
}

func (d *MigrateDeps) migrator(databaseURL string) (Migrator, error) {
	if d.MigratorFactory != nil {
		return d.MigratorFactory(databaseURL)
	}
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newMigrateCmd(c *cli) *cobra.Command {
	return newMigrateCmdWithDeps(c, &MigrateDeps{})
}

func newMigrateCmdWithDeps(c *cli, deps *MigrateDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long: `Apply, roll back or inspect the PostgreSQL schema for players,
linked OpenID identifiers and web sessions. Running migrate without a
subcommand applies all pending migrations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(c, deps, func(m Migrator) error { return runMigrateUp(cmd, m) })
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(c, deps, func(m Migrator) error { return runMigrateUp(cmd, m) })
		},
	})

	var (
		confirmed bool
		steps     int
	)
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long: `Roll back the last --steps migrations, or every migration when --steps
is not given. Rolling back everything drops all players, linked identifiers
and web sessions and requires --yes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 0 {
				return oops.Code("INVALID_STEPS").With("steps", steps).Errorf("steps must be positive")
			}
			if steps > 0 {
				return withMigrator(c, deps, func(m Migrator) error {
					if err := m.Steps(-steps); err != nil {
						return err
					}
					status, err := m.Status()
					if err != nil {
						return err
					}
					cmd.Printf("Rolled back %d migration(s), now at version %d\n", steps, status.Version)
					return nil
				})
			}
			if !confirmed {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops all data; pass --yes to confirm")
			}
			return withMigrator(c, deps, func(m Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("All migrations rolled back")
				return nil
			})
		},
	}
	down.Flags().BoolVar(&confirmed, "yes", false, "confirm dropping all data")
	down.Flags().IntVar(&steps, "steps", 0, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:     "status",
		Aliases: []string{"version"},
		Short:   "Show the current schema version and pending migrations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(c, deps, func(m Migrator) error { return runMigrateStatus(cmd, m) })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Long:  `Set the recorded schema version and clear the dirty flag. Use it to recover from a failed migration.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(c, deps, func(m Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				cmd.Printf("Schema version forced to %d\n", v)
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(c *cli, deps *MigrateDeps, run func(Migrator) error) error {
	databaseURL, err := c.cfg.RequireDatabaseURL()
	if err != nil {
		return err
	}
	m, err := deps.migrator(databaseURL)
	if err != nil {
		return err
	}
	runErr := run(m)
	if closeErr := m.Close(); closeErr != nil && runErr == nil {
		return closeErr
	}
	return runErr
}

func runMigrateUp(cmd *cobra.Command, m Migrator) error {
	before, err := m.Status()
	if err != nil {
		return err
	}
	if len(before.Pending) == 0 {
		cmd.Printf("Schema is up to date (version %d)\n", before.Version)
		return nil
	}
	if err := m.Up(); err != nil {
		return err
	}
	after, err := m.Status()
	if err != nil {
		return err
	}
	cmd.Printf("Applied %d migration(s), now at version %d (%s)\n", len(before.Pending), after.Version, after.Name)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, m Migrator) error {
	status, err := m.Status()
	if err != nil {
		return err
	}
	name := status.Name
	if name == "" {
		name = "none"
	}
	cmd.Printf("Version: %d (%s)\n", status.Version, name)
	if status.Dirty {
		cmd.Println("Dirty: yes (fix the schema, then run migrate force)")
	}
	if len(status.Pending) == 0 {
		cmd.Println("Pending: none")
		return nil
	}
	pending := make([]string, len(status.Pending))
	for i, v := range status.Pending {
		pending[i] = fmt.Sprint(v)
	}
	cmd.Printf("Pending: %s\n", strings.Join(pending, ", "))
	return nil
}

// parseForceVersion reads a leading integer from s.
func parseForceVersion(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, oops.Code("INVALID_VERSION").Errorf("version is required")
	}
	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrap(err)
	}
	return v, nil
}
