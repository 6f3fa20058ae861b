// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package openid_test

import (
	"context"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/holoid/internal/auth"
	"github.com/holomush/holoid/internal/openid"
	"github.com/holomush/holoid/internal/openid/relyingparty"
)

// assertingClient discovers a fixed provider and verifies every callback as
// claimedID.
type assertingClient struct {
	claimedID string
}

func (c *assertingClient) Discover(string) (relyingparty.Endpoint, error) {
	return relyingparty.Endpoint{URL: "https://op.example/auth", ClaimedID: c.claimedID}, nil
}

func (c *assertingClient) RedirectURL(_ relyingparty.Endpoint, returnTo, _ string) (string, error) {
	return "https://op.example/auth?" + url.Values{"openid.return_to": {returnTo}}.Encode(), nil
}

func (c *assertingClient) Verify(string) (string, error) {
	return c.claimedID, nil
}

var _ = Describe("StateStore", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupTables(ctx)
	})

	It("round-trips state and prunes it once expired", func() {
		expires := time.Now().Add(time.Minute).UTC().Truncate(time.Microsecond)
		st := relyingparty.State{
			Identifier: "http://alice.example/",
			ReturnTo:   loginEndpoint + "?open_id_complete=1",
			ExpiresAt:  expires,
		}
		Expect(env.States.Put(ctx, "tok", st)).To(Succeed())

		got, err := env.States.Get(ctx, "tok")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Identifier).To(Equal(st.Identifier))
		Expect(got.ClaimedID).To(BeEmpty())
		Expect(got.ExpiresAt).To(BeTemporally("==", expires))

		n, err := env.States.DeleteExpired(ctx, expires.Add(-time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())

		n, err = env.States.DeleteExpired(ctx, expires)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))

		_, err = env.States.Get(ctx, "tok")
		Expect(err).To(MatchError(relyingparty.ErrStateNotFound))
	})

	It("completes a verification begun by another relying party", func() {
		player := createPlayer(ctx, "http://alice.example/")
		client := &assertingClient{claimedID: "http://alice.example/"}
		newAuthenticator := func() (*openid.Authenticator, *relyingparty.Provider) {
			provider, err := relyingparty.NewProvider(relyingparty.Config{}, client, env.States, nil)
			Expect(err).NotTo(HaveOccurred())
			a, err := openid.NewAuthenticator(openid.DefaultConfig(), openid.Deps{
				Normalizer: relyingparty.Normalizer{},
				Provider:   provider,
				Finders:    openid.PlayerFinders(env.Players),
			})
			Expect(err).NotTo(HaveOccurred())
			return a, provider
		}

		first, _ := newAuthenticator()
		beginReq := openid.NewMemoryRequest(loginEndpoint, nil)
		begin := first.NewSession(env.Service.NewLoginSession(auth.Client{UserAgent: "test"}), beginReq)
		begin.SetIdentifier("alice.example")
		result, err := begin.Save(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(openid.ResultBeginningAuthentication))

		location, err := url.Parse(beginReq.Location())
		Expect(err).NotTo(HaveOccurred())
		target := location.Query().Get("openid.return_to")
		returnTo, err := url.Parse(target)
		Expect(err).NotTo(HaveOccurred())
		params := map[string]string{
			openid.ParamMode:      "id_res",
			openid.ParamClaimedID: "http://alice.example/",
			"openid.return_to":    target,
		}
		for k, v := range returnTo.Query() {
			params[k] = v[0]
		}

		second, provider := newAuthenticator()
		completeReq := openid.NewMemoryRequest(loginEndpoint, params)
		complete := second.NewSession(env.Service.NewLoginSession(auth.Client{UserAgent: "test"}), completeReq)
		result, err = complete.Save(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(openid.ResultSucceeded))
		Expect(complete.AttemptedPlayer.ID).To(Equal(player.ID))

		Expect(provider.CleanupSession(ctx, completeReq)).To(Succeed())
		_, err = env.States.Get(ctx, params[relyingparty.StateParam])
		Expect(err).To(MatchError(relyingparty.ErrStateNotFound))
	})
})

var _ = Describe("Registrar", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupTables(ctx)
	})

	It("registers identifiers that derive the same username", func() {
		registrar := auth.NewRegistrar(env.Players, nil)

		plain, err := auth.NewOpenIDPlayer("http://alice.example/")
		Expect(err).NotTo(HaveOccurred())
		secure, err := auth.NewOpenIDPlayer("https://alice.example/")
		Expect(err).NotTo(HaveOccurred())
		Expect(secure.Username).To(Equal(plain.Username))

		Expect(registrar.Create(ctx, plain)).To(Succeed())
		Expect(registrar.Create(ctx, secure)).To(Succeed())

		Expect(plain.Username).To(Equal("alice_example"))
		Expect(secure.Username).To(MatchRegexp(`^alice_example_[0-9a-z]{6}$`))
		stored, err := env.Players.GetByOpenIDIdentifier(ctx, "https://alice.example/")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Username).To(Equal(secure.Username))
	})
})
