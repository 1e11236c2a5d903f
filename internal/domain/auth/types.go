package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents the access level resolved for a single request.
// It is derived per request and never persisted on a session or identity.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// roleLevels orders roles from least to most privileged.
var roleLevels = map[Role]int{
	RoleGuest: 0,
	RoleUser:  1,
	RoleAdmin: 2,
}

// AtLeast reports whether r grants at least the privileges of required.
// Unknown roles never satisfy anything, including guest.
func (r Role) AtLeast(required Role) bool {
	have, ok := roleLevels[r]
	if !ok {
		return false
	}
	need, ok := roleLevels[required]
	if !ok {
		return false
	}
	return have >= need
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (e.g., users.id or OIDC sub)
	FirstName string
	LastName  string
	Email     string
	ExpiresAt time.Time // absolute expiry from IdP token
}

// Principal is the authenticated identity behind the current session.
type Principal struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName returns "First Last", falling back to the email.
func (p Principal) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier. It deliberately carries no role:
// admin membership is looked up again on every request.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Principal returns the principal the session was issued for.
func (s Session) Principal() Principal {
	return Principal{UserID: s.UserID, Email: s.Email, FirstName: s.FirstName, LastName: s.LastName}
}

// Credentials is the session proof forwarded with a request.
type Credentials struct {
	SessionID string
}

// Empty reports whether no session proof was presented.
func (c Credentials) Empty() bool { return strings.TrimSpace(c.SessionID) == "" }

// Actor is the outcome of role resolution for one request.
type Actor struct {
	Role      Role
	Principal *Principal
}

// Guest is the least-privileged actor.
func Guest() Actor { return Actor{Role: RoleGuest} }

// IsGuest returns true if the actor resolved to guest.
func (a Actor) IsGuest() bool { return a.Role != RoleUser && a.Role != RoleAdmin }

// UserID returns the principal id or "" for guests.
func (a Actor) UserID() string {
	if a.Principal == nil {
		return ""
	}
	return a.Principal.UserID
}
