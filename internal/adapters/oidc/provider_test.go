package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/campiestivi/campi/internal/ports"
)

// newDiscoveryServer serves a discovery document and a token endpoint that
// always rejects the code.
func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(DiscoveryDocument{
			Issuer:                srv.URL,
			AuthorizationEndpoint: srv.URL + "/authorize",
			TokenEndpoint:         srv.URL + "/token",
			UserinfoEndpoint:      srv.URL + "/userinfo",
			JwksURI:               srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T) (*Provider, *httptest.Server) {
	t.Helper()
	srv := newDiscoveryServer(t)
	p, err := NewProvider(context.Background(), ProviderConfig{
		ClientID:     "campi",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		Scope:        "profile email",
		Issuer:       srv.URL + "/.well-known/openid-configuration",
	})
	require.NoError(t, err)
	return p, srv
}

func TestNewProvider_Discovery(t *testing.T) {
	p, srv := newTestProvider(t)
	assert.Equal(t, srv.URL+"/authorize", p.config.Endpoint.AuthURL)
	assert.Equal(t, srv.URL+"/token", p.config.Endpoint.TokenURL)
	assert.Equal(t, []string{"openid", "profile", "email"}, p.config.Scopes)
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ProviderConfig
		errMsg string
	}{
		{"missing client ID", ProviderConfig{ClientSecret: "s", RedirectURL: "r", Issuer: "i"}, "client ID is required"},
		{"missing client secret", ProviderConfig{ClientID: "c", RedirectURL: "r", Issuer: "i"}, "client secret is required"},
		{"missing redirect URL", ProviderConfig{ClientID: "c", ClientSecret: "s", Issuer: "i"}, "redirect URL is required"},
		{"missing issuer", ProviderConfig{ClientID: "c", ClientSecret: "s", RedirectURL: "r"}, "issuer is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_Begin(t *testing.T) {
	p, srv := newTestProvider(t)

	authURL, state, nonce, err := p.Begin(context.Background(), ports.BeginInput{RedirectURL: "/Utente"})
	require.NoError(t, err)
	assert.Len(t, state, 32)
	assert.Len(t, nonce, 32)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/authorize", u.Scheme+"://"+u.Host+u.Path)
	q := u.Query()
	assert.Equal(t, "campi", q.Get("client_id"))
	assert.Equal(t, state, q.Get("state"))
	assert.Equal(t, nonce, q.Get("nonce"))
	assert.Equal(t, "code", q.Get("response_type"))

	_, _, _, err = p.Begin(context.Background(), ports.BeginInput{})
	assert.Error(t, err)
}

func TestProvider_Exchange_ValidationErrors(t *testing.T) {
	p, _ := newTestProvider(t)
	tests := []struct {
		in     ports.ExchangeInput
		errMsg string
	}{
		{ports.ExchangeInput{State: "s", Nonce: "n"}, "authorization code is required"},
		{ports.ExchangeInput{Code: "c", Nonce: "n"}, "state is required"},
		{ports.ExchangeInput{Code: "c", State: "s"}, "nonce is required"},
	}
	for _, tt := range tests {
		_, err := p.Exchange(context.Background(), tt.in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), tt.errMsg)
	}
}

func TestProvider_Exchange_TokenEndpointRejects(t *testing.T) {
	p, _ := newTestProvider(t)
	_, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "c", State: "s", Nonce: "n"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange code for token")
}

func TestClaimsIdentity(t *testing.T) {
	yes, no := true, false

	id, err := claims{Subject: "abc", Email: " Maria@Example.org ", EmailVerified: &yes, GivenName: "Maria", FamilyName: "Rossi"}.identity(true)
	require.NoError(t, err)
	assert.Equal(t, "abc", id.UserID)
	assert.Equal(t, "maria@example.org", id.Email)
	assert.Equal(t, "Maria", id.FirstName)
	assert.Equal(t, "Rossi", id.LastName)

	id, err = claims{Subject: "abc", Email: "a@b.it", Name: "Luca De Santis"}.identity(false)
	require.NoError(t, err)
	assert.Equal(t, "Luca", id.FirstName)
	assert.Equal(t, "De Santis", id.LastName)

	_, err = claims{Subject: "abc", Email: "a@b.it", EmailVerified: &no}.identity(true)
	assert.ErrorIs(t, err, ErrUnverifiedEmail)

	_, err = claims{Subject: "abc", Email: "a@b.it"}.identity(true)
	assert.ErrorIs(t, err, ErrUnverifiedEmail)

	_, err = claims{Email: "a@b.it"}.identity(false)
	assert.Error(t, err)

	_, err = claims{Subject: "abc"}.identity(false)
	assert.Error(t, err)
}

func TestClaimsMerge(t *testing.T) {
	yes := true
	c := claims{Subject: "keep", GivenName: "Keep"}
	c.merge(claims{Subject: "other", Email: "x@y.it", EmailVerified: &yes, GivenName: "Other", FamilyName: "Fam"})
	assert.Equal(t, "keep", c.Subject)
	assert.Equal(t, "Keep", c.GivenName)
	assert.Equal(t, "x@y.it", c.Email)
	assert.Equal(t, "Fam", c.FamilyName)
	require.NotNil(t, c.EmailVerified)
}

func TestIDTokenFrom(t *testing.T) {
	raw, err := idTokenFrom((&oauth2.Token{}).WithExtra(map[string]any{"id_token": "a.b.c"}))
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", raw)

	_, err = idTokenFrom((&oauth2.Token{}).WithExtra(map[string]any{"other": "x"}))
	assert.Error(t, err)

	_, err = idTokenFrom(nil)
	assert.Error(t, err)
}

func TestRandomToken(t *testing.T) {
	for _, n := range []int{1, 16, 31, 32} {
		s, err := randomToken(n)
		require.NoError(t, err)
		assert.Len(t, s, n)
	}
	a, _ := randomToken(32)
	b, _ := randomToken(32)
	assert.NotEqual(t, a, b)
}
