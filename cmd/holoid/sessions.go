// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCmd(c *cli) *cobra.Command {
	return newSessionsCmdWithDeps(c, &StackDeps{})
}

func newSessionsCmdWithDeps(c *cli, deps *StackDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage web sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete expired web sessions and verification state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withStack(ctx, c, deps, func(s *stack) error {
				sessions, err := s.service.PruneExpired(ctx)
				if err != nil {
					return err
				}
				states, err := s.states.DeleteExpired(ctx, s.now())
				if err != nil {
					return err
				}
				c.logger.InfoContext(ctx, "pruned expired login state",
					"sessions", sessions,
					"openid_states", states)
				cmd.Printf("Deleted %d expired session(s)\n", sessions)
				cmd.Printf("Deleted %d expired OpenID verification(s)\n", states)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke USERNAME",
		Short: "Log a player out everywhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStack(ctx, c, deps, func(s *stack) error {
				player, err := s.players.GetByUsername(ctx, args[0])
				if err != nil {
					return err
				}
				n, err := s.service.LogoutAll(ctx, player.ID)
				if err != nil {
					return err
				}
				cmd.Printf("Revoked %d session(s) of %s\n", n, player.Username)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check TOKEN",
		Short: "Resolve a session token to its player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStack(ctx, c, deps, func(s *stack) error {
				session, err := s.service.ValidateSession(ctx, args[0])
				if err != nil {
					return err
				}
				player, err := s.players.GetByID(ctx, session.PlayerID)
				if err != nil {
					return err
				}
				cmd.Printf("Player: %s (%s)\n", player.Username, player.ID)
				cmd.Printf("Session: %s\n", session.ID)
				cmd.Printf("Expires: %s\n", session.ExpiresAt.UTC().Format(time.RFC3339))
				return nil
			})
		},
	})

	return cmd
}
