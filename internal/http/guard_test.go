package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	authmocks "github.com/campiestivi/campi/internal/mocks/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingResolver records how often the role was looked up.
type countingResolver struct {
	actor domainauth.Actor
	calls int
	creds []domainauth.Credentials
}

func (c *countingResolver) ResolveActor(_ context.Context, creds domainauth.Credentials) domainauth.Actor {
	c.calls++
	c.creds = append(c.creds, creds)
	if c.actor.Role == "" {
		return domainauth.Guest()
	}
	return c.actor
}

func newGuardHandler(t *testing.T, maintenance bool, resolver *countingResolver) (http.Handler, *bool) {
	t.Helper()
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(string(RoleFromContext(r.Context()))))
	})
	rewrite := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", maintenanceRetrySec)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	})
	mw := RouteGuard(GuardOptions{
		Guard:    newTestGuard(maintenance),
		Resolver: resolver,
		Rewrite:  rewrite,
		Logger:   discardLogger(),
	})
	return mw(next), &reached
}

func TestRouteGuard_Decisions(t *testing.T) {
	tests := []struct {
		name         string
		maintenance  bool
		actor        domainauth.Actor
		target       string
		wantStatus   int
		wantLocation string
		wantNext     bool
		wantNoStore  bool
	}{
		{
			name:         "guest on admin page signs in first",
			actor:        domainauth.Guest(),
			target:       "/admin/Dashboard",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/Login?redirect=/admin/Dashboard",
			wantNoStore:  true,
		},
		{
			name:         "user on admin page goes home",
			actor:        authmocks.UserActor("u1"),
			target:       "/admin/Campi",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/",
			wantNoStore:  true,
		},
		{
			name:        "admin on admin page passes",
			actor:       authmocks.AdminActor("a1"),
			target:      "/admin/Campi",
			wantStatus:  http.StatusOK,
			wantNext:    true,
			wantNoStore: true,
		},
		{
			name:         "guest on user page keeps the query",
			actor:        domainauth.Guest(),
			target:       "/Iscrizione?campo=c1",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/Login?redirect=/Iscrizione%3Fcampo%3Dc1",
			wantNoStore:  true,
		},
		{
			name:        "admin on user page passes",
			actor:       authmocks.AdminActor("a1"),
			target:      "/Utente",
			wantStatus:  http.StatusOK,
			wantNext:    true,
			wantNoStore: true,
		},
		{
			name:         "signed-in admin leaves the sign-in page",
			actor:        authmocks.AdminActor("a1"),
			target:       "/Login",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/admin/Dashboard",
			wantNoStore:  true,
		},
		{
			name:         "signed-in user leaves the sign-in page",
			actor:        authmocks.UserActor("u1"),
			target:       "/Login?redirect=/Utente",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/",
			wantNoStore:  true,
		},
		{
			name:       "guest on sign-in page passes",
			actor:      domainauth.Guest(),
			target:     "/Login",
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "public page passes for guests",
			actor:      domainauth.Guest(),
			target:     "/About",
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:        "maintenance rewrites public pages",
			maintenance: true,
			actor:       authmocks.UserActor("u1"),
			target:      "/About",
			wantStatus:  http.StatusServiceUnavailable,
			wantNoStore: true,
		},
		{
			name:        "maintenance rewrites admin pages for guests instead of redirecting",
			maintenance: true,
			actor:       domainauth.Guest(),
			target:      "/admin/Dashboard",
			wantStatus:  http.StatusServiceUnavailable,
			wantNoStore: true,
		},
		{
			name:        "maintenance exempts admins",
			maintenance: true,
			actor:       authmocks.AdminActor("a1"),
			target:      "/About",
			wantStatus:  http.StatusOK,
			wantNext:    true,
		},
		{
			name:        "maintenance lets assets through",
			maintenance: true,
			actor:       domainauth.Guest(),
			target:      "/static/css/site.css",
			wantStatus:  http.StatusOK,
			wantNext:    true,
		},
		{
			name:        "maintenance lets probes through",
			maintenance: true,
			actor:       domainauth.Guest(),
			target:      "/healthz",
			wantStatus:  http.StatusOK,
			wantNext:    true,
		},
		{
			name:         "maintenance keeps the admin check on dotted paths",
			maintenance:  true,
			actor:        domainauth.Guest(),
			target:       "/admin/Campi/x.y",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/Login?redirect=/admin/Campi/x.y",
			wantNoStore:  true,
		},
		{
			name:         "maintenance keeps the user check on dotted paths",
			maintenance:  true,
			actor:        domainauth.Guest(),
			target:       "/Utente/figli/a.b",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/Login?redirect=/Utente/figli/a.b",
			wantNoStore:  true,
		},
		{
			name:         "maintenance sends users away from dotted admin paths",
			maintenance:  true,
			actor:        authmocks.UserActor("u1"),
			target:       "/admin/Dashboard.html",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/",
			wantNoStore:  true,
		},
		{
			name:        "maintenance leaves the sign-in page reachable",
			maintenance: true,
			actor:       domainauth.Guest(),
			target:      "/Login?redirect=/admin/Dashboard",
			wantStatus:  http.StatusOK,
			wantNext:    true,
		},
		{
			name:        "maintenance page itself passes",
			maintenance: true,
			actor:       domainauth.Guest(),
			target:      "/manutenzione",
			wantStatus:  http.StatusOK,
			wantNext:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, reached := newGuardHandler(t, tt.maintenance, &countingResolver{actor: tt.actor})
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantNext, *reached)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
			}
			if tt.wantNoStore {
				assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			} else {
				assert.Empty(t, w.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestRouteGuard_HTMXRedirect(t *testing.T) {
	h, reached := newGuardHandler(t, false, &countingResolver{})
	req := httptest.NewRequest(http.MethodGet, "/Utente/figli/nuovo", nil)
	req.Header.Set("Hx-Request", "true")
	req.Header.Set("Hx-Current-Url", "https://campi.example.org/Utente?tab=figli")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	assert.False(t, *reached)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/Login?redirect=/Utente%3Ftab%3Dfigli", w.Header().Get("Hx-Redirect"))
	assert.Empty(t, w.Header().Get("Location"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestRouteGuard_ResolvesFreshOnEveryRequest(t *testing.T) {
	resolver := &countingResolver{actor: authmocks.AdminActor("a1")}
	h, _ := newGuardHandler(t, false, resolver)

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/admin/Dashboard", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-a"})
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Equal(t, 3, resolver.calls)
	assert.Equal(t, "sess-a", resolver.creds[0].SessionID)

	// Membership revoked between requests: the next request sees the new role.
	resolver.actor = authmocks.UserActor("a1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/Dashboard", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestRouteGuard_SkipsLookupForPublicSystemPaths(t *testing.T) {
	resolver := &countingResolver{actor: authmocks.UserActor("u1")}
	h, reached := newGuardHandler(t, false, resolver)

	for _, target := range []string{"/static/js/site.js", "/api/camps", "/favicon.ico", "/healthz"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	assert.True(t, *reached)
	assert.Zero(t, resolver.calls)
}

func TestRouteGuard_PanicsWithoutDependencies(t *testing.T) {
	assert.Panics(t, func() { RouteGuard(GuardOptions{}) })
	assert.Panics(t, func() {
		RouteGuard(GuardOptions{Guard: newTestGuard(false), Resolver: &countingResolver{}})
	})
}

func TestRouteGuard_ActorReachesHandler(t *testing.T) {
	h, _ := newGuardHandler(t, false, &countingResolver{actor: authmocks.UserActor("u1")})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/About", nil))
	assert.Equal(t, "user", w.Body.String())
}
