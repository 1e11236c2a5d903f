package service

import (
	"context"
	"log/slog"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/ports"
)

// Resolution outcomes reported to the recorder.
const (
	OutcomeIdentityAbsent   = "identity_absent"
	OutcomeIdentityFailed   = "identity_failed"
	OutcomeMember           = "member"
	OutcomeMembershipAbsent = "membership_absent"
	OutcomeMembershipFailed = "membership_failed"
)

// RoleRecorder receives one observation per resolution.
type RoleRecorder interface {
	ObserveRoleResolution(role, outcome string)
}

// RoleResolverOptions groups dependencies for RoleResolver.
type RoleResolverOptions struct {
	Identity   ports.IdentityProvider // Required
	Membership ports.MembershipStore  // Required
	Logger     *slog.Logger
	Recorder   RoleRecorder
}

// RoleResolver derives guest, user or admin from a request's session proof.
// Nothing is cached: both lookups run on every call so a revoked session or
// admin row takes effect on the very next request.
type RoleResolver struct {
	identity   ports.IdentityProvider
	membership ports.MembershipStore
	logger     *slog.Logger
	recorder   RoleRecorder
}

var _ ports.RoleResolver = (*RoleResolver)(nil)

// NewRoleResolver constructs a RoleResolver.
func NewRoleResolver(opts RoleResolverOptions) *RoleResolver {
	if opts.Identity == nil {
		panic("IdentityProvider is required")
	}
	if opts.Membership == nil {
		panic("MembershipStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleResolver{
		identity:   opts.Identity,
		membership: opts.Membership,
		logger:     logger.With("component", "role_resolver"),
		recorder:   opts.Recorder,
	}
}

// Resolve returns only the role.
func (r *RoleResolver) Resolve(ctx context.Context, creds domainauth.Credentials) domainauth.Role {
	return r.ResolveActor(ctx, creds).Role
}

// ResolveActor returns the role and, unless guest, the principal.
//
// Only a Found identity with a user id may get past guest, and only a Found
// membership may reach admin. Every other status, including ones added later,
// falls to the lower role.
func (r *RoleResolver) ResolveActor(ctx context.Context, creds domainauth.Credentials) domainauth.Actor {
	if creds.Empty() {
		r.observe(domainauth.RoleGuest, OutcomeIdentityAbsent)
		return domainauth.Guest()
	}

	id := r.identity.CurrentPrincipal(ctx, creds)
	if id.Status != domainauth.LookupFound || id.Principal.UserID == "" {
		outcome := OutcomeIdentityAbsent
		if id.Status != domainauth.LookupAbsent {
			outcome = OutcomeIdentityFailed
			r.logger.WarnContext(ctx, "identity lookup failed, resolving as guest",
				"status", id.Status.String(), "error", id.Err)
		}
		r.observe(domainauth.RoleGuest, outcome)
		return domainauth.Guest()
	}

	principal := id.Principal
	actor := domainauth.Actor{Role: domainauth.RoleUser, Principal: &principal}

	m := r.membership.LookupAdmin(ctx, principal.UserID)
	switch m.Status {
	case domainauth.LookupFound:
		actor.Role = domainauth.RoleAdmin
		r.observe(actor.Role, OutcomeMember)
	case domainauth.LookupAbsent:
		r.observe(actor.Role, OutcomeMembershipAbsent)
	default:
		r.logger.WarnContext(ctx, "admin membership lookup failed, resolving as user",
			"user_id", principal.UserID, "status", m.Status.String(), "error", m.Err)
		r.observe(actor.Role, OutcomeMembershipFailed)
	}
	return actor
}

func (r *RoleResolver) observe(role domainauth.Role, outcome string) {
	if r.recorder != nil {
		r.recorder.ObserveRoleResolution(string(role), outcome)
	}
}
