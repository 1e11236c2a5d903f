package oidc

// Package oidc signs campi families in through an external OpenID Connect provider.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/ports"
)

// ErrUnverifiedEmail is returned when the provider reports an unverified email
// and the provider was configured to require verification.
var ErrUnverifiedEmail = errors.New("email address not verified by provider")

// Provider implements ports.AuthProvider using the authorization code flow.
type Provider struct {
	config   *oauth2.Config
	op       *gooidc.Provider
	verifier *gooidc.IDTokenVerifier
	client   *http.Client

	requireVerified bool
	now             func() time.Time
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	// Issuer may be the issuer URL or the full discovery document URL.
	Issuer string
	// RequireVerifiedEmail rejects identities whose email_verified claim is false.
	RequireVerifiedEmail bool
	HTTPClient           *http.Client
}

// DiscoveryDocument is the subset of the discovery document the provider reads.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider discovers the issuer and builds an OAuth2 config from it.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	switch {
	case cfg.ClientID == "":
		return nil, errors.New("client ID is required")
	case cfg.ClientSecret == "":
		return nil, errors.New("client secret is required")
	case cfg.RedirectURL == "":
		return nil, errors.New("redirect URL is required")
	case cfg.Issuer == "":
		return nil, errors.New("issuer is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, client), issuerFrom(cfg.Issuer))
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	scopes := strings.Fields(cfg.Scope)
	if !slices.Contains(scopes, gooidc.ScopeOpenID) {
		scopes = append([]string{gooidc.ScopeOpenID}, scopes...)
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     op.Endpoint(),
		},
		op:              op,
		verifier:        op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		client:          client,
		requireVerified: cfg.RequireVerifiedEmail,
		now:             time.Now,
	}, nil
}

func issuerFrom(raw string) string {
	s := strings.TrimSuffix(strings.TrimSpace(raw), "/")
	s = strings.TrimSuffix(s, "/.well-known/openid-configuration")
	return s
}

// Begin returns the provider URL the browser should be sent to.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}
	state, err := randomToken(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state, gooidc.Nonce(nonce))
	return authURL, state, nonce, nil
}

// Exchange trades the code for tokens and returns the verified identity.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	switch {
	case in.Code == "":
		return domainauth.Identity{}, errors.New("authorization code is required")
	case in.State == "":
		return domainauth.Identity{}, errors.New("state is required")
	case in.Nonce == "":
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.client)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	rawID, err := idTokenFrom(token)
	if err != nil {
		return domainauth.Identity{}, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != in.Nonce {
		return domainauth.Identity{}, errors.New("invalid nonce")
	}

	var c claims
	if claimsErr := idTok.Claims(&c); claimsErr != nil {
		return domainauth.Identity{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	if c.Email == "" || c.GivenName == "" {
		p.fillFromUserInfo(ctx, token, &c)
	}

	ident, err := c.identity(p.requireVerified)
	if err != nil {
		return domainauth.Identity{}, err
	}
	ident.ExpiresAt = idTok.Expiry
	if !token.Expiry.IsZero() && token.Expiry.Before(ident.ExpiresAt) {
		ident.ExpiresAt = token.Expiry
	}
	if ident.ExpiresAt.IsZero() {
		ident.ExpiresAt = p.now().Add(time.Hour)
	}
	return ident, nil
}

// fillFromUserInfo is best effort: the id_token alone is enough to sign in.
func (p *Provider) fillFromUserInfo(ctx context.Context, token *oauth2.Token, c *claims) {
	ui, err := p.op.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return
	}
	var extra claims
	if ui.Claims(&extra) != nil {
		return
	}
	c.merge(extra)
}

// claims are the standard OIDC profile and email claims.
type claims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Name          string `json:"name"`
}

// merge fills empty fields from other without overwriting.
func (c *claims) merge(other claims) {
	if c.Subject == "" {
		c.Subject = other.Subject
	}
	if c.Email == "" {
		c.Email = other.Email
		c.EmailVerified = other.EmailVerified
	}
	if c.GivenName == "" {
		c.GivenName = other.GivenName
	}
	if c.FamilyName == "" {
		c.FamilyName = other.FamilyName
	}
	if c.Name == "" {
		c.Name = other.Name
	}
}

func (c claims) identity(requireVerified bool) (domainauth.Identity, error) {
	if c.Subject == "" {
		return domainauth.Identity{}, errors.New("missing sub claim")
	}
	if c.Email == "" {
		return domainauth.Identity{}, errors.New("missing email claim")
	}
	if requireVerified && (c.EmailVerified == nil || !*c.EmailVerified) {
		return domainauth.Identity{}, ErrUnverifiedEmail
	}

	first, last := c.GivenName, c.FamilyName
	if first == "" && last == "" && c.Name != "" {
		first, last, _ = strings.Cut(strings.TrimSpace(c.Name), " ")
	}
	return domainauth.Identity{
		UserID:    c.Subject,
		Email:     strings.ToLower(strings.TrimSpace(c.Email)),
		FirstName: first,
		LastName:  strings.TrimSpace(last),
	}, nil
}

func idTokenFrom(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}

// randomToken returns n URL-safe characters from crypto/rand.
func randomToken(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, base64.RawURLEncoding.DecodedLen(n)+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
