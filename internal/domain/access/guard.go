package access

import (
	"net/url"
	"strings"

	"github.com/campiestivi/campi/internal/domain/auth"
)

// Kind is what the guard decided to do with a request.
type Kind int

const (
	// Pass lets the request through to the page.
	Pass Kind = iota
	// Redirect sends the client elsewhere.
	Redirect
	// Rewrite serves the Target's content at the original URL.
	Rewrite
)

func (k Kind) String() string {
	switch k {
	case Redirect:
		return "redirect"
	case Rewrite:
		return "rewrite"
	default:
		return "pass"
	}
}

// Reason labels why a decision was taken. Used for logs and metrics.
type Reason string

const (
	ReasonAllowed         Reason = "allowed"
	ReasonMaintenance     Reason = "maintenance"
	ReasonAdminSignIn     Reason = "admin_sign_in_required"
	ReasonAdminForbidden  Reason = "admin_forbidden"
	ReasonUserSignIn      Reason = "user_sign_in_required"
	ReasonAlreadySignedIn Reason = "already_signed_in"
	ReasonSystemPath      Reason = "system_path"
	ReasonMaintenancePage Reason = "maintenance_page"
)

// Decision is the guard's verdict for one request.
type Decision struct {
	Kind    Kind
	Target  string
	NoStore bool
	Reason  Reason
}

// GuardConfig configures a Guard. Maintenance is fixed for the guard's lifetime.
type GuardConfig struct {
	Policy          Policy
	Maintenance     bool
	MaintenancePath string
	AdminLanding    string
	UserLanding     string
	StaticPrefix    string
	APIPrefix       string

	// ExtraSystemPaths are exact paths exempt from maintenance (health probes, metrics).
	ExtraSystemPaths []string
	// SignInPaths are extra sign-in endpoints (external login start and
	// callback) that stay reachable during maintenance like the login page.
	SignInPaths []string
}

// Guard decides pass, redirect or rewrite for a (path, role) pair.
type Guard struct {
	policy          Policy
	maintenance     bool
	maintenancePath string
	adminLanding    string
	userLanding     string
	staticPrefix    string
	apiPrefix       string
	systemPaths     map[string]struct{}
	signInPaths     map[string]struct{}
}

// NewGuard builds a Guard. Empty landing pages default to "/".
func NewGuard(cfg GuardConfig) *Guard {
	g := &Guard{
		policy:          cfg.Policy,
		maintenance:     cfg.Maintenance,
		maintenancePath: trimSlash(cfg.MaintenancePath),
		adminLanding:    cfg.AdminLanding,
		userLanding:     cfg.UserLanding,
		staticPrefix:    cfg.StaticPrefix,
		apiPrefix:       cfg.APIPrefix,
		systemPaths:     make(map[string]struct{}, len(cfg.ExtraSystemPaths)),
		signInPaths:     make(map[string]struct{}, len(cfg.SignInPaths)+1),
	}
	if g.adminLanding == "" {
		g.adminLanding = "/"
	}
	if g.userLanding == "" {
		g.userLanding = "/"
	}
	for _, p := range cfg.ExtraSystemPaths {
		g.systemPaths[trimSlash(p)] = struct{}{}
	}
	if lp := cfg.Policy.LoginPath(); lp != "" {
		g.signInPaths[trimSlash(lp)] = struct{}{}
	}
	for _, p := range cfg.SignInPaths {
		g.signInPaths[trimSlash(p)] = struct{}{}
	}
	return g
}

// Maintenance reports whether the maintenance overlay is active.
func (g *Guard) Maintenance() bool { return g.maintenance }

// MaintenancePath returns the page served during maintenance.
func (g *Guard) MaintenancePath() string { return g.maintenancePath }

// Policy returns the route policy the guard enforces.
func (g *Guard) Policy() Policy { return g.policy }

// Decide evaluates, in order: maintenance, admin paths, user paths, and the
// sign-in page. returnTo is the original path plus query to remember on a
// sign-in redirect; when empty, path is used.
//
// Paths exempt from maintenance skip only the rewrite. They still go through
// the admin and user checks below.
func (g *Guard) Decide(path, returnTo string, role auth.Role) Decision {
	path = cleanPath(path)
	if returnTo == "" {
		returnTo = path
	}

	if g.maintenance && role != auth.RoleAdmin && !g.exemptFromMaintenance(path) {
		return Decision{Kind: Rewrite, Target: g.maintenancePath, NoStore: true, Reason: ReasonMaintenance}
	}

	switch g.policy.Requirement(path) {
	case RequireAdmin:
		switch {
		case role == auth.RoleAdmin:
			return Decision{Kind: Pass, NoStore: true, Reason: ReasonAllowed}
		case role == auth.RoleUser:
			return Decision{Kind: Redirect, Target: "/", NoStore: true, Reason: ReasonAdminForbidden}
		default:
			return Decision{Kind: Redirect, Target: g.SignInURL(returnTo), NoStore: true, Reason: ReasonAdminSignIn}
		}
	case RequireUser:
		if !role.AtLeast(auth.RoleUser) {
			return Decision{Kind: Redirect, Target: g.SignInURL(returnTo), NoStore: true, Reason: ReasonUserSignIn}
		}
		return Decision{Kind: Pass, NoStore: true, Reason: ReasonAllowed}
	case GuestOnly:
		switch role {
		case auth.RoleAdmin:
			return Decision{Kind: Redirect, Target: g.adminLanding, NoStore: true, Reason: ReasonAlreadySignedIn}
		case auth.RoleUser:
			return Decision{Kind: Redirect, Target: g.userLanding, NoStore: true, Reason: ReasonAlreadySignedIn}
		}
	}
	return Decision{Kind: Pass, Reason: g.passReason(path)}
}

// exemptFromMaintenance reports whether path is served normally while the
// overlay is on: system paths, the maintenance page and the sign-in endpoints.
func (g *Guard) exemptFromMaintenance(path string) bool {
	p := trimSlash(path)
	if p == g.maintenancePath || g.IsSystemPath(path) {
		return true
	}
	_, ok := g.signInPaths[p]
	return ok
}

func (g *Guard) passReason(path string) Reason {
	if !g.maintenance {
		return ReasonAllowed
	}
	switch {
	case trimSlash(path) == g.maintenancePath:
		return ReasonMaintenancePage
	case g.IsSystemPath(path):
		return ReasonSystemPath
	}
	return ReasonAllowed
}

// SignInURL builds the sign-in location remembering returnTo.
func (g *Guard) SignInURL(returnTo string) string {
	return SignInURL(g.policy.LoginPath(), returnTo)
}

// IsSystemPath reports whether path is needed for the app shell to load:
// bundled assets, API routes, anything with a file extension, and the
// configured operational endpoints.
func (g *Guard) IsSystemPath(path string) bool {
	if g.staticPrefix != "" && strings.HasPrefix(path, g.staticPrefix) {
		return true
	}
	if g.apiPrefix != "" && (strings.HasPrefix(path, g.apiPrefix) || path == strings.TrimSuffix(g.apiPrefix, "/")) {
		return true
	}
	if strings.Contains(path, ".") {
		return true
	}
	_, ok := g.systemPaths[trimSlash(path)]
	return ok
}

// SignInURL returns loginPath?redirect=<returnTo>.
func SignInURL(loginPath, returnTo string) string {
	if returnTo == "" {
		return loginPath
	}
	// "/" is legal in a query component; keeping it readable yields
	// /Login?redirect=/admin/Dashboard.
	return loginPath + "?redirect=" + strings.ReplaceAll(url.QueryEscape(returnTo), "%2F", "/")
}
