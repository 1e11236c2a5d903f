package httpx

import (
	"log/slog"
	"net/http"

	"github.com/campiestivi/campi/internal/domain/access"
	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/observability/metrics"
	"github.com/campiestivi/campi/internal/ports"
)

// GuardOptions configures RouteGuard.
type GuardOptions struct {
	Guard    *access.Guard      // required
	Resolver ports.RoleResolver // required
	// Rewrite serves the maintenance page at the original URL. Required.
	Rewrite http.Handler
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// RouteGuard resolves the caller's role on every request and applies the
// guard's decision before any page handler runs. Lookup failures have
// already been folded into a lesser role by the resolver, so they take the
// same redirect as an anonymous visitor.
func RouteGuard(opts GuardOptions) func(http.Handler) http.Handler {
	if opts.Guard == nil || opts.Resolver == nil || opts.Rewrite == nil {
		panic("httpx: RouteGuard requires Guard, Resolver and Rewrite")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.Guard.Policy()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			path := r.URL.Path

			// Assets and API routes that need no role skip the lookups.
			actor := domainauth.Guest()
			if !opts.Guard.IsSystemPath(path) || policy.Requirement(path) != access.RequireGuest {
				actor = opts.Resolver.ResolveActor(ctx, credentialsFrom(r))
			}
			if info := requestInfoFrom(ctx); info != nil {
				info.role = actor.Role
			}

			d := opts.Guard.Decide(path, returnPathFor(r), actor.Role)
			opts.Metrics.ObserveGuard(d.Kind.String(), string(d.Reason))

			switch d.Kind {
			case access.Redirect:
				logger.DebugContext(ctx, "route guard redirect",
					slog.String("path", path),
					slog.String("role", string(actor.Role)),
					slog.String("reason", string(d.Reason)),
					slog.String("target", d.Target),
				)
				writeRedirect(w, r, d.Target)
				return
			case access.Rewrite:
				setNoStore(w)
				opts.Rewrite.ServeHTTP(w, r.WithContext(SetActorInContext(ctx, actor)))
				return
			}

			if d.NoStore {
				setNoStore(w)
			}
			next.ServeHTTP(w, r.WithContext(SetActorInContext(ctx, actor)))
		})
	}
}
