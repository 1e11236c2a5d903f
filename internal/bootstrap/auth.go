package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/campiestivi/campi/config"
	"github.com/campiestivi/campi/internal/adapters/devauth"
	"github.com/campiestivi/campi/internal/adapters/oidc"
	redisadapter "github.com/campiestivi/campi/internal/adapters/redis"
	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/ports"
	"github.com/campiestivi/campi/internal/service"
	"github.com/redis/go-redis/v9"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Users       core.UserRepository
	Events      service.AuthEventRecorder
	Logger      *slog.Logger
}

// BuildAuthService creates the auth service with the external provider the
// configured mode asks for. Password accounts are always available.
// Unlike optional features, auth never degrades to "disabled": without
// sessions nobody could sign in, so a broken setup fails startup.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (*service.AuthService, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth: redis client is required for sessions")
	}
	if cfg.Users == nil {
		return nil, errors.New("auth: user repository is required")
	}

	provider, err := BuildAuthProvider(ctx, cfg.Auth)
	if err != nil {
		return nil, err
	}
	if cfg.Logger != nil {
		cfg.Logger.Info("auth configured", "mode", cfg.Auth.Mode, "external_login", provider != nil)
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Users:    cfg.Users,
		Sessions: redisadapter.NewSessionStore(cfg.RedisClient),
		Provider: provider,
		Config: service.AuthServiceConfig{
			SessionTTL: cfg.Auth.SessionTTL,
			BcryptCost: cfg.Auth.BcryptCost,
		},
		Logger: cfg.Logger,
		Events: cfg.Events,
	}), nil
}

// BuildAuthProvider returns the external sign-in provider for the mode, or
// nil for password-only mode.
//
//nolint:ireturn // the concrete provider depends on the configured mode.
func BuildAuthProvider(ctx context.Context, cfg config.AuthConfig) (ports.AuthProvider, error) {
	switch cfg.Mode {
	case config.AuthModeMock:
		return buildDevAuthProvider(cfg)
	case config.AuthModeOAuth:
		return buildOAuthProvider(ctx, cfg)
	case config.AuthModePassword, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("auth: unsupported mode %q", cfg.Mode)
	}
}

func buildDevAuthProvider(cfg config.AuthConfig) (ports.AuthProvider, error) {
	prov, err := devauth.NewProvider(devauth.Config{
		UserID:    cfg.DevAuth.UserID,
		Email:     cfg.DevAuth.Email,
		FirstName: cfg.DevAuth.FirstName,
		LastName:  cfg.DevAuth.LastName,
		TTL:       cfg.SessionTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create dev auth provider: %w", err)
	}
	return prov, nil
}

func buildOAuthProvider(ctx context.Context, cfg config.AuthConfig) (ports.AuthProvider, error) {
	oauth := cfg.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		return nil, errors.New("auth: oauth mode requires discovery url, client id and client secret")
	}

	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:             oauth.ClientID,
		ClientSecret:         oauth.ClientSecret,
		RedirectURL:          oauth.RedirectURL,
		Scope:                oauth.Scope,
		Issuer:               oauth.DiscoveryURL,
		RequireVerifiedEmail: oauth.RequireVerifiedEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("create oidc provider: %w", err)
	}
	return prov, nil
}
