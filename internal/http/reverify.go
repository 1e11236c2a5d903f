package httpx

import (
	"log/slog"
	"net/http"

	"github.com/campiestivi/campi/internal/domain/access"
	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/observability/metrics"
	"github.com/campiestivi/campi/internal/ports"
)

const (
	reasonPageSignIn   = "page_sign_in_required"
	reasonPageNotAdmin = "page_admin_forbidden"
)

// PageGateOptions configures a PageGate.
type PageGateOptions struct {
	Resolver  ports.RoleResolver // required
	LoginPath string
	// Landing is where signed-in non-admins are sent from admin pages.
	Landing string
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// PageGate re-checks the caller inside privileged page handlers. It shares
// no state with RouteGuard and resolves the role again, so a page stays
// protected even if it is mounted without the guard in front of it.
type PageGate struct {
	resolver  ports.RoleResolver
	loginPath string
	landing   string
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewPageGate builds a PageGate. Empty paths default to /Login and /.
func NewPageGate(opts PageGateOptions) *PageGate {
	if opts.Resolver == nil {
		panic("httpx: NewPageGate requires a Resolver")
	}
	g := &PageGate{
		resolver:  opts.Resolver,
		loginPath: opts.LoginPath,
		landing:   opts.Landing,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
	if g.loginPath == "" {
		g.loginPath = "/Login"
	}
	if g.landing == "" {
		g.landing = "/"
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// RequireUserPage returns the signed-in actor, or writes a redirect to the
// sign-in page and returns false.
func (g *PageGate) RequireUserPage(w http.ResponseWriter, r *http.Request) (domainauth.Actor, bool) {
	actor := g.resolver.ResolveActor(r.Context(), credentialsFrom(r))
	if !actor.Role.AtLeast(domainauth.RoleUser) || actor.Principal == nil {
		g.deny(w, r, access.SignInURL(g.loginPath, returnPathFor(r)), reasonPageSignIn)
		return domainauth.Guest(), false
	}
	setPrivatePage(w)
	return actor, true
}

// RequireAdminPage returns the admin actor. Guests are sent to sign in and
// signed-in non-admins to the landing page.
func (g *PageGate) RequireAdminPage(w http.ResponseWriter, r *http.Request) (domainauth.Actor, bool) {
	actor := g.resolver.ResolveActor(r.Context(), credentialsFrom(r))
	switch {
	case actor.Principal == nil || !actor.Role.AtLeast(domainauth.RoleUser):
		g.deny(w, r, access.SignInURL(g.loginPath, returnPathFor(r)), reasonPageSignIn)
		return domainauth.Guest(), false
	case actor.Role != domainauth.RoleAdmin:
		g.deny(w, r, g.landing, reasonPageNotAdmin)
		return domainauth.Guest(), false
	}
	setPrivatePage(w)
	return actor, true
}

func (g *PageGate) deny(w http.ResponseWriter, r *http.Request, target, reason string) {
	g.metrics.ObserveGuard(access.Redirect.String(), reason)
	g.logger.DebugContext(r.Context(), "page gate redirect",
		slog.String("path", r.URL.Path),
		slog.String("reason", reason),
		slog.String("target", target),
	)
	writeRedirect(w, r, target)
}
