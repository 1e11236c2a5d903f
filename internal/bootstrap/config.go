package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/campiestivi/campi/config"
	"github.com/joho/godotenv"
)

// InitLogger initializes the structured logger: JSON in production, text in dev.
func InitLogger(isDev bool, level string) *slog.Logger {
	logger := newLogger(os.Stdout, isDev, level)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, isDev bool, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if isDev {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateConfig rejects combinations the site cannot start with.
func ValidateConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	switch cfg.Auth.Mode {
	case config.AuthModeOAuth:
		if strings.TrimSpace(cfg.Auth.OAuth.DiscoveryURL) == "" {
			return errors.New("AUTH_MODE=oauth requires OAUTH_DISCOVERY_URL")
		}
	case config.AuthModeMock:
		if !cfg.IsDev {
			return errors.New("AUTH_MODE=mock is only allowed with DEV=true")
		}
	}
	if cfg.Site.LoginPath == cfg.Site.MaintenancePath {
		return fmt.Errorf("login path and maintenance path must differ (both %q)", cfg.Site.LoginPath)
	}
	if cfg.Observability.Metrics.Enabled && strings.HasPrefix(cfg.Observability.Metrics.Path, cfg.Site.AdminPrefix+"/") {
		return fmt.Errorf("metrics path %q must not live under the admin prefix", cfg.Observability.Metrics.Path)
	}
	return nil
}
