package config

import "strings"

// SiteConfig describes the route policy surface and the maintenance overlay.
// The maintenance flag is read once at startup and injected into the route guard.
type SiteConfig struct {
	// MaintenanceMode replaces every non-system page with the maintenance page
	// for everyone except admins.
	MaintenanceMode bool `env:"MAINTENANCE_MODE" envDefault:"false"`

	LoginPath       string   `env:"LOGIN_PATH"       envDefault:"/Login"`
	MaintenancePath string   `env:"MAINTENANCE_PATH" envDefault:"/manutenzione"`
	AdminPrefix     string   `env:"ADMIN_PREFIX"     envDefault:"/admin"`
	AdminLanding    string   `env:"ADMIN_LANDING"    envDefault:"/admin/Dashboard"`
	UserPrefixes    []string `env:"USER_PREFIXES"    envDefault:"/Utente,/Iscrizione" envSeparator:","`
	StaticPrefix    string   `env:"STATIC_PREFIX"    envDefault:"/static/"`
	APIPrefix       string   `env:"API_PREFIX"       envDefault:"/api/"`
}

// Sanitize normalises path settings so they always start with a slash.
func (s *SiteConfig) Sanitize() {
	s.LoginPath = normalizePath(s.LoginPath, "/Login")
	s.MaintenancePath = normalizePath(s.MaintenancePath, "/manutenzione")
	s.AdminPrefix = strings.TrimSuffix(normalizePath(s.AdminPrefix, "/admin"), "/")
	s.AdminLanding = normalizePath(s.AdminLanding, "/admin/Dashboard")
	s.StaticPrefix = normalizePath(s.StaticPrefix, "/static/")
	s.APIPrefix = normalizePath(s.APIPrefix, "/api/")

	prefixes := make([]string, 0, len(s.UserPrefixes))
	for _, p := range s.UserPrefixes {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		prefixes = append(prefixes, strings.TrimSuffix(normalizePath(p, ""), "/"))
	}
	s.UserPrefixes = prefixes
}

func normalizePath(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return fallback
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
