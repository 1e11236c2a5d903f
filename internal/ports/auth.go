package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// ErrSessionNotFound is returned by SessionStore.Get for missing or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// IdentityProvider answers "who is signed in with these credentials?".
// Implementations never return a privileged answer on error: every failure is
// reported as a LookupFailed or LookupAbsent result.
type IdentityProvider interface {
	CurrentPrincipal(ctx context.Context, creds domainauth.Credentials) domainauth.PrincipalLookup
}

// MembershipStore checks the admin-membership set.
type MembershipStore interface {
	LookupAdmin(ctx context.Context, userID string) domainauth.MembershipLookup
}

// RoleResolver derives the request role. It is satisfied by service.RoleResolver
// and lets HTTP layers be tested with a fixed answer.
type RoleResolver interface {
	ResolveActor(ctx context.Context, creds domainauth.Credentials) domainauth.Actor
}
