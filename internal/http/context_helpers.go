package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
)

// SessionCookieName carries the opaque session id.
const SessionCookieName = "session_id"

// actorKey is an unexported context key type to avoid collisions across packages.
type actorKey struct{}

// SetActorInContext returns a child context that carries the resolved actor.
// The actor is for layout rendering only; privileged pages re-resolve it.
func SetActorInContext(ctx context.Context, actor domainauth.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by RouteGuard, or a guest.
func ActorFromContext(ctx context.Context) domainauth.Actor {
	if a, ok := ctx.Value(actorKey{}).(domainauth.Actor); ok {
		return a
	}
	return domainauth.Guest()
}

// RoleFromContext returns the role stored by RouteGuard, or guest.
func RoleFromContext(ctx context.Context) domainauth.Role {
	a := ActorFromContext(ctx)
	if a.IsGuest() {
		return domainauth.RoleGuest
	}
	return a.Role
}

// credentialsFrom reads the session cookie. A missing cookie yields empty credentials.
func credentialsFrom(r *http.Request) domainauth.Credentials {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return domainauth.Credentials{}
	}
	return domainauth.Credentials{SessionID: c.Value}
}
