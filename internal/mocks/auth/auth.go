// Package auth provides hand-written doubles for the auth ports.
package auth

import (
	"context"
	"sync"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/ports"
)

// ErrSessionNotFound is returned by MemorySessionStore.Get for unknown ids.
var ErrSessionNotFound = ports.ErrSessionNotFound

// MockAuthProvider returns canned values from Begin and Exchange.
type MockAuthProvider struct {
	AuthURL  string
	State    string
	Nonce    string
	Identity domainauth.Identity
	BeginErr error
	ExchErr  error

	// LastExchange records the most recent Exchange input.
	LastExchange ports.ExchangeInput
}

func (m *MockAuthProvider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	if m.BeginErr != nil {
		return "", "", "", m.BeginErr
	}
	return m.AuthURL, m.State, m.Nonce, nil
}

func (m *MockAuthProvider) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	m.LastExchange = in
	if m.ExchErr != nil {
		return domainauth.Identity{}, m.ExchErr
	}
	return m.Identity, nil
}

// MemorySessionStore keeps sessions in a map. Set Err to make every call fail.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
	Err      error
}

// NewMemorySessionStore returns an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string]domainauth.Session{}}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.sessions == nil {
		m.sessions = map[string]domainauth.Session{}
	}
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return domainauth.Session{}, m.Err
	}
	s, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StaticIdentityProvider maps session ids to lookups. Unknown ids are absent
// unless Fallback is set.
type StaticIdentityProvider struct {
	mu       sync.Mutex
	Sessions map[string]domainauth.PrincipalLookup
	Fallback *domainauth.PrincipalLookup
	Calls    int
}

func (s *StaticIdentityProvider) CurrentPrincipal(_ context.Context, creds domainauth.Credentials) domainauth.PrincipalLookup {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if l, ok := s.Sessions[creds.SessionID]; ok {
		return l
	}
	if s.Fallback != nil {
		return *s.Fallback
	}
	return domainauth.NoPrincipal()
}

// StaticMembership answers from a fixed map of user id to lookup.
// Unknown users are not members.
type StaticMembership struct {
	mu     sync.Mutex
	Admins map[string]domainauth.MembershipLookup
	Calls  []string
}

func (s *StaticMembership) LookupAdmin(_ context.Context, userID string) domainauth.MembershipLookup {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, userID)
	if l, ok := s.Admins[userID]; ok {
		return l
	}
	return domainauth.NotMember()
}

// FixedResolver resolves every request to Actor, or to ByCookie[session id] when present.
type FixedResolver struct {
	Actor    domainauth.Actor
	ByCookie map[string]domainauth.Actor
}

func (f *FixedResolver) ResolveActor(_ context.Context, creds domainauth.Credentials) domainauth.Actor {
	if a, ok := f.ByCookie[creds.SessionID]; ok {
		return a
	}
	if f.Actor.Role == "" {
		return domainauth.Guest()
	}
	return f.Actor
}

// AdminActor and UserActor build actors for tests.
func AdminActor(id string) domainauth.Actor {
	return domainauth.Actor{Role: domainauth.RoleAdmin, Principal: &domainauth.Principal{UserID: id, Email: id + "@example.org"}}
}

func UserActor(id string) domainauth.Actor {
	return domainauth.Actor{Role: domainauth.RoleUser, Principal: &domainauth.Principal{UserID: id, Email: id + "@example.org"}}
}
