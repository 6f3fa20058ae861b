// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoid/internal/auth"
	"github.com/holomush/holoid/internal/openid"
	"github.com/holomush/holoid/pkg/errutil"
)

const cliUserAgent = "holoid-cli"

type loginFlags struct {
	endpoint    string
	rememberMe  bool
	metricsFile string
}

func newLoginCmd(c *cli) *cobra.Command {
	return newLoginCmdWithDeps(c, &StackDeps{})
}

func newLoginCmdWithDeps(c *cli, deps *StackDeps) *cobra.Command {
	var flags loginFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign a player in with OpenID from the terminal",
		Long: `Run an OpenID login in two steps. "login begin" discovers the provider
and prints the URL to open in a browser. Once the provider redirects back,
pass the full callback URL to "login complete" to verify the assertion and
issue a web session. Verification state is kept in the database, so the
two steps may run in different processes.`,
	}
	cmd.PersistentFlags().StringVar(&flags.metricsFile, "metrics-file", "", "write login metrics to this file in Prometheus text format")

	begin := &cobra.Command{
		Use:   "begin IDENTIFIER",
		Short: "Start verification and print the provider URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStack(ctx, c, deps, func(s *stack) error {
				defer writeMetrics(ctx, c, s.registry, flags.metricsFile)
				return runLoginBegin(cmd, s, flags, args[0])
			})
		},
	}
	begin.Flags().StringVar(&flags.endpoint, "endpoint", "", "URL the provider redirects back to")
	begin.Flags().BoolVar(&flags.rememberMe, "remember-me", false, "issue a long-lived session")
	_ = begin.MarkFlagRequired("endpoint")
	cmd.AddCommand(begin)

	cmd.AddCommand(&cobra.Command{
		Use:   "complete CALLBACK_URL",
		Short: "Verify the provider callback and issue a web session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStack(ctx, c, deps, func(s *stack) error {
				defer writeMetrics(ctx, c, s.registry, flags.metricsFile)
				return runLoginComplete(cmd, c, s, args[0])
			})
		},
	})

	return cmd
}

func runLoginBegin(cmd *cobra.Command, s *stack, flags loginFlags, identifier string) error {
	if _, err := url.ParseRequestURI(flags.endpoint); err != nil {
		return oops.Code("LOGIN_ENDPOINT_INVALID").With("endpoint", flags.endpoint).Wrap(err)
	}
	req := openid.NewMemoryRequest(flags.endpoint, map[string]string{
		openid.ParamRememberMe: strconv.FormatBool(flags.rememberMe),
	})
	session := s.authenticator.NewSession(s.service.NewLoginSession(auth.Client{UserAgent: cliUserAgent}), req)
	session.SetIdentifier(identifier)

	result, err := session.Save(cmd.Context(), nil)
	if err != nil {
		return err
	}
	if result != openid.ResultBeginningAuthentication {
		return loginFailed(cmd, session, result)
	}
	cmd.Printf("Open this URL to sign in as %s:\n%s\n", session.Identifier(), req.Location())
	return nil
}

func runLoginComplete(cmd *cobra.Command, c *cli, s *stack, callback string) error {
	ctx := cmd.Context()
	req, err := callbackRequest(callback)
	if err != nil {
		return err
	}
	session := s.authenticator.NewSession(s.service.NewLoginSession(auth.Client{UserAgent: cliUserAgent}), req)

	result, err := session.Save(ctx, nil)
	if err != nil {
		return err
	}
	if result != openid.ResultNotFoundAutoCreate {
		// Registration already dropped the state.
		if err := s.provider.CleanupSession(ctx, req); err != nil {
			errutil.LogErrorContext(ctx, c.logger, "failed to clean up openid session state", err)
		}
	}

	switch result {
	case openid.ResultSucceeded:
		player := session.AttemptedPlayer
		ws := session.WebSession()
		cmd.Printf("Signed in as %s (%s)\n", player.Username, player.ID)
		cmd.Printf("Session: %s (expires %s)\n", ws.ID, ws.ExpiresAt.UTC().Format(time.RFC3339))
		cmd.Printf("Token: %s\n", session.Token())
		return nil
	case openid.ResultNotFoundAutoCreate:
		cmd.Printf("No player matched %s; registration was attempted. Sign in again to start a session.\n", session.Identifier())
		return nil
	default:
		return loginFailed(cmd, session, result)
	}
}

// callbackRequest turns the URL the provider redirected to into a request on
// the endpoint it names.
func callbackRequest(callback string) (*openid.MemoryRequest, error) {
	u, err := url.ParseRequestURI(callback)
	if err != nil {
		return nil, oops.Code("LOGIN_CALLBACK_INVALID").Wrap(err)
	}
	params := make(map[string]string)
	for k, v := range u.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	u.RawQuery, u.Fragment = "", ""
	return openid.NewMemoryRequest(u.String(), params), nil
}

func loginFailed(cmd *cobra.Command, session *openid.Session, result openid.Result) error {
	messages := session.Errors.FullMessages()
	for _, msg := range messages {
		cmd.Printf("Error: %s\n", msg)
	}
	return oops.Code("LOGIN_FAILED").
		With("result", result.String()).
		With("identifier", session.Identifier()).
		Errorf("login failed: %s", strings.Join(messages, "; "))
}

func writeMetrics(ctx context.Context, c *cli, registry *prometheus.Registry, path string) {
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		errutil.LogErrorContext(ctx, c.logger, "failed to write metrics file",
			oops.With("path", path).Wrap(err))
	}
}
