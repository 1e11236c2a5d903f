package siteclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSite mimics the handful of endpoints the client talks to.
type fakeSite struct {
	sessions    map[string]domainauth.Role
	loginGets   atomic.Int32
	logoutCalls atomic.Int32
}

func (s *fakeSite) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Login", func(w http.ResponseWriter, r *http.Request) {
		s.loginGets.Add(1)
		if _, err := r.Cookie(csrfCookieName); err != nil {
			http.SetCookie(w, &http.Cookie{Name: csrfCookieName, Value: "tok", Path: "/"})
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /Login", func(w http.ResponseWriter, r *http.Request) {
		if !s.csrfOK(r, r.PostFormValue(csrfFormField)) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.PostFormValue("password") != "correct horse" {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "sess-1", Path: "/", HttpOnly: true})
		writeJSON(w, map[string]string{"status": "signed_in", "redirect_to": "/"})
	})
	mux.HandleFunc("POST /Logout", func(w http.ResponseWriter, r *http.Request) {
		if !s.csrfOK(r, r.Header.Get(csrfHeaderName)) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		s.logoutCalls.Add(1)
		http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", MaxAge: -1})
		writeJSON(w, map[string]string{"status": "signed_out", "redirect_to": "/"})
	})
	mux.HandleFunc("GET /api/auth/role", func(w http.ResponseWriter, r *http.Request) {
		role := domainauth.RoleGuest
		if c, err := r.Cookie(sessionCookieName); err == nil {
			if got, ok := s.sessions[c.Value]; ok {
				role = got
			}
		}
		writeJSON(w, map[string]any{"role": role, "authenticated": role != domainauth.RoleGuest})
	})
	return mux
}

func (s *fakeSite) csrfOK(r *http.Request, submitted string) bool {
	c, err := r.Cookie(csrfCookieName)
	return err == nil && submitted != "" && c.Value == submitted
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, site *fakeSite) *Client {
	t.Helper()
	srv := httptest.NewServer(site.handler())
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "ftp://example.org", "://nope"} {
		_, err := New(Config{BaseURL: raw})
		assert.Error(t, err, raw)
	}
}

func TestClient_SignInRoleSignOut(t *testing.T) {
	site := &fakeSite{sessions: map[string]domainauth.Role{"sess-1": domainauth.RoleUser}}
	c := newTestClient(t, site)
	ctx := context.Background()

	info, err := c.Role(ctx)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleGuest, info.Role)
	assert.False(t, info.Authenticated)

	landing, err := c.SignIn(ctx, "anna@example.org", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "/", landing)
	assert.Equal(t, "sess-1", c.Session())

	info, err = c.Role(ctx)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUser, info.Role)
	assert.True(t, info.Authenticated)

	var notified atomic.Int32
	c.OnSignOut(func() { notified.Add(1) })

	require.NoError(t, c.SignOut(ctx))
	assert.Equal(t, int32(1), notified.Load())
	assert.Empty(t, c.Session(), "the site expires the session cookie")
	assert.Equal(t, int32(1), site.loginGets.Load(), "the csrf token is fetched once and reused")

	info, err = c.Role(ctx)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleGuest, info.Role)
}

func TestClient_SignInBadPassword(t *testing.T) {
	c := newTestClient(t, &fakeSite{})

	_, err := c.SignIn(context.Background(), "anna@example.org", "nope")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, c.Session())
}

func TestClient_UseSession(t *testing.T) {
	site := &fakeSite{sessions: map[string]domainauth.Role{"sess-admin": domainauth.RoleAdmin}}
	c := newTestClient(t, site)

	c.UseSession(" sess-admin ")
	info, err := c.Role(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, info.Role)
}

func TestClient_SignOutFailureDoesNotNotify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.SetCookie(w, &http.Cookie{Name: csrfCookieName, Value: "tok", Path: "/"})
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	called := false
	c.OnSignOut(func() { called = true })

	err = c.SignOut(context.Background())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Status)
	assert.False(t, called)
}

func TestClient_OnSignOutUnsubscribe(t *testing.T) {
	site := &fakeSite{}
	c := newTestClient(t, site)

	var first, second int
	stop := c.OnSignOut(func() { first++ })
	c.OnSignOut(func() { second++ })
	c.OnSignOut(nil)()

	require.NoError(t, c.SignOut(context.Background()))
	stop()
	require.NoError(t, c.SignOut(context.Background()))

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, int32(2), site.logoutCalls.Load())
}

func TestClient_RoleRejectsUnknownRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"role": "superuser", "authenticated": true})
	}))
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Role(context.Background())

	assert.ErrorContains(t, err, "unknown role")
}
