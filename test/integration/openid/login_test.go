// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package openid_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/holoid/internal/auth"
	"github.com/holomush/holoid/internal/openid"
	"github.com/holomush/holoid/internal/openid/relyingparty"
)

const loginEndpoint = "https://holoid.example/login"

var _ = Describe("OpenID login", func() {
	var (
		ctx      context.Context
		provider *trustingProvider
	)

	BeforeEach(func() {
		ctx = context.Background()
		cleanupTables(ctx)
		provider = &trustingProvider{}
	})

	newAuthenticator := func(cfg openid.Config) *openid.Authenticator {
		a, err := openid.NewAuthenticator(cfg, openid.Deps{
			Normalizer: relyingparty.Normalizer{},
			Provider:   provider,
			Finders:    openid.PlayerFinders(env.Players),
			Creator:    env.Players,
		})
		Expect(err).NotTo(HaveOccurred())
		return a
	}

	callback := func(claimedID string) map[string]string {
		return map[string]string{
			openid.ParamCallbackComplete: "1",
			openid.ParamForSession:       "1",
			openid.ParamRememberMe:       "true",
			openid.ParamClaimedID:        claimedID,
			openid.ParamMode:             "id_res",
		}
	}

	Describe("beginning authentication", func() {
		It("redirects without touching the database", func() {
			a := newAuthenticator(openid.DefaultConfig())
			req := openid.NewMemoryRequest(loginEndpoint, nil)
			session := a.NewSession(env.Service.NewLoginSession(auth.Client{UserAgent: "test", IPAddress: "127.0.0.1"}), req)
			session.SetCredentials(map[string]any{"openid_identifier": "alice.example"})

			called := false
			result, err := session.Save(ctx, func(bool) { called = true })

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(openid.ResultBeginningAuthentication))
			Expect(called).To(BeFalse())
			Expect(req.Location()).To(ContainSubstring("https://op.example/auth"))
			Expect(session.Identifier()).To(Equal("http://alice.example/"))
		})
	})

	Describe("completing authentication", func() {
		It("logs an existing player in and persists a web session", func() {
			player := createPlayer(ctx, "http://alice.example/")
			a := newAuthenticator(openid.DefaultConfig())
			session := a.NewSession(env.Service.NewLoginSession(auth.Client{UserAgent: "test", IPAddress: "127.0.0.1"}),
				openid.NewMemoryRequest(loginEndpoint, callback("http://alice.example/")))

			var outcome *bool
			result, err := session.Save(ctx, func(ok bool) { outcome = &ok })

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(openid.ResultSucceeded))
			Expect(outcome).NotTo(BeNil())
			Expect(*outcome).To(BeTrue())
			Expect(session.RememberMe).To(BeTrue())

			validated, err := env.Service.ValidateSession(ctx, session.Token())
			Expect(err).NotTo(HaveOccurred())
			Expect(validated.PlayerID).To(Equal(player.ID))
			Expect(validated.RememberMe).To(BeTrue())

			stored, err := env.Players.GetByID(ctx, player.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.LoginCount).To(Equal(1))
			Expect(stored.LastLoginAt).NotTo(BeNil())

			Expect(env.Service.Logout(ctx, validated.ID)).To(Succeed())
			_, err = env.Service.ValidateSession(ctx, session.Token())
			Expect(err).To(HaveOccurred())
		})

		It("reports an unknown identifier when auto-registration is off", func() {
			a := newAuthenticator(openid.DefaultConfig())
			session := a.NewSession(env.Service.NewLoginSession(auth.Client{UserAgent: "test", IPAddress: "127.0.0.1"}),
				openid.NewMemoryRequest(loginEndpoint, callback("http://nobody.example/")))

			result, err := session.Save(ctx, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(openid.ResultFailedValidation))
			Expect(session.Errors.On(openid.FieldIdentifier)).To(ContainElement(openid.MsgNoMatchingPlayer))
		})

		It("registers a player for an unknown identifier when auto-registration is on", func() {
			a := newAuthenticator(openid.Config{
				FinderSelector: openid.FinderByIdentifier,
				AutoRegister:   true,
			})
			req := openid.NewMemoryRequest(loginEndpoint, callback("http://bob.example/"))
			session := a.NewSession(env.Service.NewLoginSession(auth.Client{UserAgent: "test", IPAddress: "127.0.0.1"}), req)

			called := false
			result, err := session.Save(ctx, func(bool) { called = true })

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(openid.ResultNotFoundAutoCreate))
			Expect(called).To(BeFalse())
			Expect(provider.cleanups).To(Equal(1))
			_, completed := req.Param(openid.ParamCallbackComplete)
			Expect(completed).To(BeFalse())

			created, err := env.Players.GetByOpenIDIdentifier(ctx, "http://bob.example/")
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Username).To(Equal("bob_example"))
		})

		It("finds players through linked identifiers", func() {
			player := createPlayer(ctx, "http://carol.example/")
			Expect(env.Players.LinkOpenIDIdentifier(ctx, player.ID, "https://op.example/id/carol")).To(Succeed())
			a := newAuthenticator(openid.Config{FinderSelector: openid.FinderByLinkedIdentifier})
			session := a.NewSession(env.Service.NewLoginSession(auth.Client{UserAgent: "test", IPAddress: "127.0.0.1"}),
				openid.NewMemoryRequest(loginEndpoint, callback("https://op.example/id/carol")))

			result, err := session.Save(ctx, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(openid.ResultSucceeded))
			Expect(session.AttemptedPlayer.ID).To(Equal(player.ID))
		})
	})
})

var _ = Describe("PlayerRepository", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupTables(ctx)
	})

	It("rejects a second player with the same identifier", func() {
		createPlayer(ctx, "http://dave.example/")
		dup, err := auth.NewOpenIDPlayer("http://dave.example/")
		Expect(err).NotTo(HaveOccurred())
		dup.Username = "dave_two"

		err = env.Players.Create(ctx, dup)

		Expect(err).To(MatchError(auth.ErrAlreadyExists))
	})

	It("rejects linking an identifier twice", func() {
		first := createPlayer(ctx, "http://erin.example/")
		second := createPlayer(ctx, "http://frank.example/")
		Expect(env.Players.LinkOpenIDIdentifier(ctx, first.ID, "https://op.example/id/shared")).To(Succeed())

		err := env.Players.LinkOpenIDIdentifier(ctx, second.ID, "https://op.example/id/shared")

		Expect(err).To(MatchError(auth.ErrAlreadyExists))
	})

	It("removes linked identifiers and sessions with the player", func() {
		player := createPlayer(ctx, "http://gina.example/")
		Expect(env.Players.LinkOpenIDIdentifier(ctx, player.ID, "https://op.example/id/gina")).To(Succeed())

		Expect(env.Players.Delete(ctx, player.ID)).To(Succeed())

		_, err := env.Players.GetByLinkedOpenIDIdentifier(ctx, "https://op.example/id/gina")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})
