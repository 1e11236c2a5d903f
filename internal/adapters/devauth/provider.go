package devauth

// Package devauth signs everyone in as one configured person. Local development only.

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/ports"
)

// Config is the identity handed out by the provider.
type Config struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	// TTL bounds the identity expiry; 8h when zero.
	TTL time.Duration
	// CallbackPath is where Begin sends the browser; /auth/callback when empty.
	CallbackPath string
}

// Provider implements ports.AuthProvider without leaving the site: Begin
// points straight at our own callback and Exchange ignores the code.
type Provider struct {
	cfg Config
	now func() time.Time
}

// NewProvider validates cfg and returns a Provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 8 * time.Hour
	}
	if cfg.CallbackPath == "" {
		cfg.CallbackPath = "/auth/callback"
	}
	return &Provider{cfg: cfg, now: time.Now}, nil
}

// Begin returns a local callback URL carrying a fresh state.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomHex(16)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomHex(16)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return p.cfg.CallbackPath + "?" + q.Encode(), state, nonce, nil
}

// Exchange returns the configured identity. State checks happen in the handler.
func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	return domainauth.Identity{
		UserID:    p.cfg.UserID,
		Email:     p.cfg.Email,
		FirstName: p.cfg.FirstName,
		LastName:  p.cfg.LastName,
		ExpiresAt: p.now().Add(p.cfg.TTL),
	}, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
