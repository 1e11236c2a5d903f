// Package access holds the route policy and the pure decision logic of the
// route guard. Nothing here performs I/O: the caller resolves the role and
// applies the decision to the response.
package access

import (
	"strings"

	"github.com/campiestivi/campi/internal/domain/auth"
)

// Requirement is the access level a path demands.
type Requirement int

const (
	// RequireGuest means anyone may see the path.
	RequireGuest Requirement = iota
	// RequireUser means a signed-in actor is needed.
	RequireUser
	// RequireAdmin means an admin-set member is needed.
	RequireAdmin
	// GuestOnly marks the sign-in page: signed-in actors are sent away.
	GuestOnly
)

func (r Requirement) String() string {
	switch r {
	case RequireUser:
		return "user"
	case RequireAdmin:
		return "admin"
	case GuestOnly:
		return "guest_only"
	default:
		return "guest"
	}
}

// MinimumRole returns the least role satisfying the requirement.
// GuestOnly is reachable by guests only, so its minimum is guest.
func (r Requirement) MinimumRole() auth.Role {
	switch r {
	case RequireUser:
		return auth.RoleUser
	case RequireAdmin:
		return auth.RoleAdmin
	default:
		return auth.RoleGuest
	}
}

// PolicyConfig describes the route surface.
type PolicyConfig struct {
	LoginPath    string
	AdminPrefix  string
	UserPrefixes []string
}

// Policy maps a request path to exactly one Requirement. It is total:
// unmatched paths are guest-accessible.
type Policy struct {
	loginPath    string
	adminPrefix  string
	userPrefixes []string
}

// NewPolicy builds a policy from cfg, trimming trailing slashes from prefixes.
func NewPolicy(cfg PolicyConfig) Policy {
	p := Policy{
		loginPath:   trimSlash(cfg.LoginPath),
		adminPrefix: trimSlash(cfg.AdminPrefix),
	}
	for _, prefix := range cfg.UserPrefixes {
		if prefix = trimSlash(prefix); prefix != "" {
			p.userPrefixes = append(p.userPrefixes, prefix)
		}
	}
	return p
}

// Requirement returns the requirement for path. Admin prefixes are checked
// before user prefixes so an overlap can never weaken an admin path.
func (p Policy) Requirement(path string) Requirement {
	path = cleanPath(path)
	switch {
	case p.IsAdminPath(path):
		return RequireAdmin
	case p.IsUserPath(path):
		return RequireUser
	case p.IsLoginPath(path):
		return GuestOnly
	default:
		return RequireGuest
	}
}

// IsAdminPath reports whether path is under the admin prefix.
func (p Policy) IsAdminPath(path string) bool {
	return p.adminPrefix != "" && hasSegmentPrefix(cleanPath(path), p.adminPrefix)
}

// IsUserPath reports whether path is under any user-protected prefix.
func (p Policy) IsUserPath(path string) bool {
	path = cleanPath(path)
	for _, prefix := range p.userPrefixes {
		if hasSegmentPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// IsLoginPath reports whether path is the sign-in page.
func (p Policy) IsLoginPath(path string) bool {
	return p.loginPath != "" && trimSlash(cleanPath(path)) == p.loginPath
}

// LoginPath returns the configured sign-in path.
func (p Policy) LoginPath() string { return p.loginPath }

// hasSegmentPrefix matches prefix on path segment boundaries, so "/admin"
// covers "/admin" and "/admin/x" but not "/administrator".
func hasSegmentPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/'
}

// cleanPath collapses duplicate slashes so "//admin" cannot dodge the prefix check.
func cleanPath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return path
}

func trimSlash(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 1 {
		s = strings.TrimRight(s, "/")
	}
	return s
}
