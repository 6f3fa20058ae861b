// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoid/internal/openid"
	"github.com/holomush/holoid/internal/openid/relyingparty"
)

func newNormalizeCmd(_ *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize IDENTIFIER...",
		Short: "Print the canonical form of OpenID identifiers",
		Long: `Normalize each identifier the way the login form does and print
the canonical identifier, or the message a player would see when the input
is not an OpenID identifier.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd, relyingparty.Normalizer{}, args)
		},
	}
}

func runNormalize(cmd *cobra.Command, normalizer openid.Normalizer, args []string) error {
	invalid := 0
	for _, raw := range args {
		id, err := normalizer.Normalize(raw)
		if err != nil {
			invalid++
			cmd.Printf("%s\t%s\n", raw, err.Error())
			continue
		}
		cmd.Printf("%s\t%s\n", raw, id)
	}
	if invalid > 0 {
		return oops.Code("OPENID_INVALID_IDENTIFIER").
			With("invalid", invalid).
			Errorf("%d of %d identifiers are invalid", invalid, len(args))
	}
	return nil
}
