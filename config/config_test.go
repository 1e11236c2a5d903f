package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "oauth")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("OAUTH_CLIENT_ID", "campi-client")
	t.Setenv("OAUTH_CLIENT_SECRET", "super-secret")
	t.Setenv("OAUTH_REDIRECT_URL", "https://campi.example.org/auth/callback")
	t.Setenv("OAUTH_DISCOVERY_URL", "https://login.example.org/.well-known/openid-configuration")
	t.Setenv("OAUTH_SCOPE", "openid email")
	t.Setenv("DEV_AUTH_USER_ID", "11111111-1111-1111-1111-111111111111")
	t.Setenv("DEV_AUTH_EMAIL", "dev@example.org")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	expected := AuthConfig{
		Mode:       AuthModeOAuth,
		SessionTTL: 2 * time.Hour,
		BcryptCost: 10,
		OAuth: OAuthConfig{
			ClientID:     "campi-client",
			ClientSecret: "super-secret",
			RedirectURL:  "https://campi.example.org/auth/callback",
			Scope:        "openid email",
			DiscoveryURL: "https://login.example.org/.well-known/openid-configuration",

			RequireVerifiedEmail: true,
		},
		DevAuth: DevAuthConfig{
			UserID:    "11111111-1111-1111-1111-111111111111",
			Email:     "dev@example.org",
			FirstName: "Dev",
			LastName:  "User",
		},
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
}

func TestAuthMode_UnmarshalText(t *testing.T) {
	var mode AuthMode
	if err := mode.UnmarshalText([]byte(" Password ")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != AuthModePassword {
		t.Fatalf("expected password mode, got %q", mode)
	}
	if err := mode.UnmarshalText([]byte("saml")); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestAuthConfig_Sanitize(t *testing.T) {
	cfg := AuthConfig{SessionTTL: -1, BcryptCost: 99}
	cfg.Sanitize()

	if cfg.Mode != AuthModePassword {
		t.Fatalf("expected default mode, got %q", cfg.Mode)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("expected default session ttl, got %v", cfg.SessionTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("expected bcrypt default cost, got %d", cfg.BcryptCost)
	}
}

func TestSiteConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Site.MaintenanceMode {
		t.Fatalf("maintenance must default to off")
	}
	if cfg.Site.LoginPath != "/Login" || cfg.Site.AdminLanding != "/admin/Dashboard" {
		t.Fatalf("unexpected defaults: %#v", cfg.Site)
	}
	if !reflect.DeepEqual(cfg.Site.UserPrefixes, []string{"/Utente", "/Iscrizione"}) {
		t.Fatalf("unexpected user prefixes: %#v", cfg.Site.UserPrefixes)
	}
}

func TestSiteConfig_MaintenanceFromEnv(t *testing.T) {
	t.Setenv("MAINTENANCE_MODE", "true")
	t.Setenv("USER_PREFIXES", "Utente/, /Iscrizione ,")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if !cfg.Site.MaintenanceMode {
		t.Fatalf("expected maintenance mode on")
	}
	if !reflect.DeepEqual(cfg.Site.UserPrefixes, []string{"/Utente", "/Iscrizione"}) {
		t.Fatalf("expected normalised prefixes, got %#v", cfg.Site.UserPrefixes)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{Enabled: true, Path: " metrics "}
	cfg.Sanitize()

	if cfg.Path != "/metrics" {
		t.Fatalf("expected normalised path, got %q", cfg.Path)
	}

	cfg = ObservabilityMetricsConfig{Enabled: true, Path: ""}
	cfg.Sanitize()
	if cfg.Path != "/metrics" {
		t.Fatalf("expected default path, got %q", cfg.Path)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{CompressionLevel: 42}
	cfg.Sanitize()
	if cfg.CompressionLevel != 9 {
		t.Fatalf("expected clamp to 9, got %d", cfg.CompressionLevel)
	}
	cfg.CompressionLevel = 0
	cfg.Sanitize()
	if cfg.CompressionLevel != 1 {
		t.Fatalf("expected clamp to 1, got %d", cfg.CompressionLevel)
	}
	if cfg.ShutdownTimeout != 15*time.Second || cfg.ReadHeaderTimeout != 10*time.Second {
		t.Fatalf("expected default timeouts, got %s / %s", cfg.ShutdownTimeout, cfg.ReadHeaderTimeout)
	}
}
