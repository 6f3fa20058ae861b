// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package relyingparty implements openid.Provider and openid.Normalizer on
// top of an OpenID 2.0 relying-party library.
package relyingparty

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/samber/oops"
	openidgo "github.com/yohcop/openid-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/holomush/holoid/internal/openid"
)

// User-facing messages for unsuccessful verification.
const (
	MsgServerNotFound = "Sorry, the OpenID server couldn't be found"
	MsgCanceled       = "OpenID verification was canceled"
	MsgFailed         = "OpenID verification failed"
)

// StateParam carries the state token on the return target. It is under
// openid.SessionStatePrefix.
const StateParam = openid.SessionStatePrefix + "state"

// DefaultStateTTL bounds how long a user may take at the provider.
const DefaultStateTTL = 10 * time.Minute

const (
	modeCancel    = "cancel"
	paramReturnTo = "openid.return_to"
)

var tracer = otel.Tracer("github.com/holomush/holoid/internal/openid/relyingparty")

// Config configures the relying party.
type Config struct {
	// Realm is the trust root shown to the user by the provider. When empty
	// it is derived from the return target's scheme and host.
	Realm string `koanf:"realm" yaml:"realm"`
	// StateTTL is how long a begun verification may wait for its callback.
	// Zero selects DefaultStateTTL.
	StateTTL time.Duration `koanf:"state_ttl" yaml:"state_ttl"`
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.StateTTL < 0 {
		return oops.Code("RELYING_PARTY_CONFIG_INVALID").
			With("state_ttl", c.StateTTL).
			Errorf("state ttl must not be negative")
	}
	if c.Realm == "" {
		return nil
	}
	u, err := url.Parse(c.Realm)
	if err != nil {
		return oops.Code("RELYING_PARTY_CONFIG_INVALID").With("realm", c.Realm).Wrap(err)
	}
	if u.Scheme == "" || u.Host == "" {
		return oops.Code("RELYING_PARTY_CONFIG_INVALID").
			With("realm", c.Realm).
			Errorf("realm must be an absolute URL")
	}
	return nil
}

func (c Config) stateTTL() time.Duration {
	if c.StateTTL == 0 {
		return DefaultStateTTL
	}
	return c.StateTTL
}

// Endpoint is the outcome of discovery on a user-supplied identifier.
type Endpoint struct {
	URL     string
	LocalID string
	// ClaimedID is empty when the identifier names a provider rather than
	// a user.
	ClaimedID string
}

// Client performs the OpenID 2.0 protocol steps.
type Client interface {
	// Discover finds the provider endpoint for identifier.
	Discover(identifier string) (Endpoint, error)
	// RedirectURL builds the provider URL the user agent should be sent to.
	RedirectURL(ep Endpoint, returnTo, realm string) (string, error)
	// Verify checks the positive assertion carried by callbackURL and returns
	// the verified identifier.
	Verify(callbackURL string) (string, error)
}

type libraryClient struct {
	discovery openidgo.DiscoveryCache
	nonces    openidgo.NonceStore
}

// NewClient returns a Client with in-memory discovery cache and nonce store.
// The stores are safe for concurrent use and live as long as the Client.
func NewClient() Client {
	return &libraryClient{
		discovery: openidgo.NewSimpleDiscoveryCache(),
		nonces:    openidgo.NewSimpleNonceStore(),
	}
}

func (c *libraryClient) Discover(identifier string) (Endpoint, error) {
	opEndpoint, opLocalID, claimedID, err := openidgo.Discover(identifier)
	if err != nil {
		//nolint:wrapcheck // callers wrap with context
		return Endpoint{}, err
	}
	return Endpoint{URL: opEndpoint, LocalID: opLocalID, ClaimedID: claimedID}, nil
}

func (c *libraryClient) RedirectURL(ep Endpoint, returnTo, realm string) (string, error) {
	//nolint:wrapcheck // callers wrap with context
	return openidgo.BuildRedirectURL(ep.URL, ep.LocalID, ep.ClaimedID, returnTo, realm)
}

func (c *libraryClient) Verify(callbackURL string) (string, error) {
	//nolint:wrapcheck // callers wrap with context
	return openidgo.Verify(callbackURL, c.discovery, c.nonces)
}

// Normalizer canonicalizes identifiers with the library's URL normalization.
// XRI identifiers are rejected.
type Normalizer struct{}

// Normalize implements openid.Normalizer.
func (Normalizer) Normalize(raw string) (string, error) {
	id, err := openidgo.Normalize(raw)
	if err != nil {
		return "", openid.ErrInvalidIdentifier(raw, err)
	}
	return id, nil
}

// Provider implements openid.Provider.
type Provider struct {
	cfg    Config
	client Client
	states StateStore
	logger *slog.Logger
	now    func() time.Time
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithClock replaces the time source used for state expiry.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates a Provider. A nil logger uses slog.Default().
func NewProvider(cfg Config, client Client, states StateStore, logger *slog.Logger, opts ...ProviderOption) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, oops.Code("RELYING_PARTY_CONFIG_INVALID").Errorf("client is required")
	}
	if states == nil {
		return nil, oops.Code("RELYING_PARTY_CONFIG_INVALID").Errorf("state store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{cfg: cfg, client: client, states: states, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Authenticate implements openid.Provider. It completes verification when
// the request carries the provider callback and begins it otherwise. Only a
// failing StateStore is reported as an error.
func (p *Provider) Authenticate(ctx context.Context, req openid.Request, identifier, returnTo string) (openid.Response, error) {
	ctx, span := tracer.Start(ctx, "relyingparty.Authenticate")
	defer span.End()

	if v, ok := req.Param(openid.ParamCallbackComplete); ok && v != "" {
		span.SetAttributes(attribute.String("openid.step", "complete"))
		return p.complete(ctx, req)
	}
	span.SetAttributes(attribute.String("openid.step", "begin"))
	return p.begin(ctx, req, identifier, returnTo)
}

func (p *Provider) begin(ctx context.Context, req openid.Request, identifier, returnTo string) (openid.Response, error) {
	notFound := openid.Response{Status: openid.StatusUnsuccessful, Message: MsgServerNotFound}
	if identifier == "" {
		return notFound, nil
	}

	ep, err := p.client.Discover(identifier)
	if err != nil {
		p.logger.InfoContext(ctx, "openid discovery failed", "identifier", identifier, "error", err)
		return notFound, nil
	}

	token := rand.Text()
	target, err := addParams(returnTo, map[string]string{
		openid.ParamCallbackComplete: "1",
		StateParam:                   token,
	})
	if err != nil {
		p.logger.WarnContext(ctx, "invalid return target", "return_to", returnTo, "error", err)
		return notFound, nil
	}

	location, err := p.client.RedirectURL(ep, target, p.realm(target))
	if err != nil {
		p.logger.InfoContext(ctx, "openid redirect failed", "identifier", identifier, "error", err)
		return notFound, nil
	}

	st := State{
		Identifier: identifier,
		ClaimedID:  ep.ClaimedID,
		ReturnTo:   target,
		ExpiresAt:  p.now().Add(p.cfg.stateTTL()),
	}
	if err := p.states.Put(ctx, token, st); err != nil {
		return openid.Response{}, oops.Code("OPENID_STATE_FAILED").
			With("operation", "store state").
			With("identifier", identifier).
			Wrap(err)
	}

	req.SetParam(StateParam, token)
	req.Redirect(location)
	return openid.Response{Status: openid.StatusRedirected, Identifier: identifier}, nil
}

func (p *Provider) complete(ctx context.Context, req openid.Request) (openid.Response, error) {
	if mode, _ := req.Param(openid.ParamMode); mode == modeCancel {
		return openid.Response{Status: openid.StatusUnsuccessful, Message: MsgCanceled}, nil
	}
	failed := openid.Response{Status: openid.StatusUnsuccessful, Message: MsgFailed}

	token, _ := req.Param(StateParam)
	if token == "" {
		p.logger.InfoContext(ctx, "openid callback without state")
		return failed, nil
	}
	st, err := p.states.Get(ctx, token)
	if errors.Is(err, ErrStateNotFound) {
		p.logger.InfoContext(ctx, "openid callback with unknown state")
		return failed, nil
	}
	if err != nil {
		return openid.Response{}, oops.Code("OPENID_STATE_FAILED").
			With("operation", "load state").
			Wrap(err)
	}
	if !p.now().Before(st.ExpiresAt) {
		p.logger.InfoContext(ctx, "openid callback after state expiry", "identifier", st.Identifier)
		return failed, nil
	}
	if got, _ := req.Param(paramReturnTo); got != st.ReturnTo {
		p.logger.WarnContext(ctx, "openid return target mismatch",
			"identifier", st.Identifier,
			"return_to", got)
		return failed, nil
	}

	verified, err := p.client.Verify(req.URL())
	if err != nil {
		p.logger.InfoContext(ctx, "openid assertion rejected", "identifier", st.Identifier, "error", err)
		return failed, nil
	}
	if st.ClaimedID != "" && verified != st.ClaimedID {
		p.logger.WarnContext(ctx, "openid assertion for another identifier",
			"claimed_id", st.ClaimedID,
			"verified", verified)
		return failed, nil
	}
	return openid.Response{Status: openid.StatusSuccessful, Identifier: verified}, nil
}

// CleanupSession implements openid.Provider. It drops the stored state of
// the verification req completed.
func (p *Provider) CleanupSession(ctx context.Context, req openid.Request) error {
	token, ok := req.Param(StateParam)
	if !ok {
		return nil
	}
	req.DeleteParam(StateParam)
	if token == "" {
		return nil
	}
	if err := p.states.Delete(ctx, token); err != nil {
		return oops.Code("OPENID_STATE_FAILED").
			With("operation", "delete state").
			Wrap(err)
	}
	return nil
}

func (p *Provider) realm(returnTo string) string {
	if p.cfg.Realm != "" {
		return p.cfg.Realm
	}
	u, err := url.Parse(returnTo)
	if err != nil {
		return ""
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
}

func addParams(rawURL string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", oops.Code("RELYING_PARTY_RETURN_TO_INVALID").With("return_to", rawURL).Wrap(err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var (
	_ openid.Provider   = (*Provider)(nil)
	_ openid.Normalizer = Normalizer{}
)
