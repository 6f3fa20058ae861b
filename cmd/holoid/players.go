// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoid/internal/auth"
)

func newPlayersCmd(c *cli) *cobra.Command {
	return newPlayersCmdWithDeps(c, &StackDeps{})
}

func newPlayersCmdWithDeps(c *cli, deps *StackDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Manage players and their OpenID identifiers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show USERNAME",
		Short: "Show a player and its active sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStack(ctx, c, deps, func(s *stack) error {
				player, err := s.players.GetByUsername(ctx, args[0])
				if err != nil {
					return err
				}
				sessions, err := s.service.ActiveSessions(ctx, player.ID)
				if err != nil {
					return err
				}
				printPlayer(cmd, player, sessions)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "register IDENTIFIER",
		Short: "Create a player for an OpenID identifier",
		Long: `Create a player the way a first OpenID login does with auto-registration
enabled. The username is derived from the identifier; when it is taken a
suffixed username is used instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStack(ctx, c, deps, func(s *stack) error {
				identifier, err := s.authenticator.Normalize(args[0])
				if err != nil {
					return err
				}
				player, err := auth.NewOpenIDPlayer(identifier)
				if err != nil {
					return err
				}
				if err := s.registrar.Create(ctx, player); err != nil {
					return err
				}
				cmd.Printf("Registered %s (%s) for %s\n", player.Username, player.ID, identifier)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "link USERNAME IDENTIFIER",
		Short: "Let a player sign in with another OpenID identifier",
		Long: `Link an additional identifier to a player. Linked identifiers are only
used when the configured finder is find_by_linked_openid_identifier.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStack(ctx, c, deps, func(s *stack) error {
				identifier, err := s.authenticator.Normalize(args[1])
				if err != nil {
					return err
				}
				player, err := s.players.GetByUsername(ctx, args[0])
				if err != nil {
					return err
				}
				if err := s.players.LinkOpenIDIdentifier(ctx, player.ID, identifier); err != nil {
					return err
				}
				cmd.Printf("Linked %s to %s\n", identifier, player.Username)
				return nil
			})
		},
	})

	var confirmed bool
	remove := &cobra.Command{
		Use:   "delete USERNAME",
		Short: "Delete a player with its identifiers and sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return oops.Code("CONFIRMATION_REQUIRED").
					With("username", args[0]).
					Errorf("players delete cannot be undone; pass --yes to confirm")
			}
			ctx := cmd.Context()
			return withStack(ctx, c, deps, func(s *stack) error {
				player, err := s.players.GetByUsername(ctx, args[0])
				if err != nil {
					return err
				}
				if err := s.players.Delete(ctx, player.ID); err != nil {
					return err
				}
				c.logger.InfoContext(ctx, "deleted player", "player_id", player.ID.String())
				cmd.Printf("Deleted %s\n", player.Username)
				return nil
			})
		},
	}
	remove.Flags().BoolVar(&confirmed, "yes", false, "confirm deleting the player")
	cmd.AddCommand(remove)

	return cmd
}

func printPlayer(cmd *cobra.Command, player *auth.Player, sessions []*auth.WebSession) {
	cmd.Printf("ID: %s\n", player.ID)
	cmd.Printf("Username: %s\n", player.Username)
	if player.OpenIDIdentifier != nil {
		cmd.Printf("OpenID: %s\n", *player.OpenIDIdentifier)
	}
	cmd.Printf("Logins: %d\n", player.LoginCount)
	if player.LastLoginAt != nil {
		cmd.Printf("Last login: %s\n", player.LastLoginAt.UTC().Format(time.RFC3339))
	}
	cmd.Printf("Active sessions: %d\n", len(sessions))
	for _, ws := range sessions {
		cmd.Printf("  %s\t%s\t%s\texpires %s\n",
			ws.ID, ws.Client.IPAddress, ws.Client.UserAgent, ws.ExpiresAt.UTC().Format(time.RFC3339))
	}
}
