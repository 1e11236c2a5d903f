package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/campiestivi/campi/config"
	httpx "github.com/campiestivi/campi/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
	// ErrCh receives the serve error if the listener dies. Optional.
	ErrCh chan<- error
}

// BuildHTTPHandler builds the site handler from the service container.
func BuildHTTPHandler(cfg *HTTPServerConfig) (http.Handler, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("http server config is required")
	}
	if cfg.Services.Auth == nil || cfg.Services.Resolver == nil || cfg.Services.Guard == nil {
		return nil, errors.New("http server requires auth, resolver and guard")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	services := httpx.RouterServices{
		Auth:          cfg.Services.Auth,
		Resolver:      cfg.Services.Resolver,
		Guard:         cfg.Services.Guard,
		Camps:         cfg.Services.Camps,
		Children:      cfg.Services.Children,
		Profiles:      cfg.Services.Profiles,
		Enrollments:   cfg.Services.Enrollments,
		Dashboard:     cfg.Services.Dashboard,
		Health:        cfg.Services.Health,
		Metrics:       cfg.Services.Metrics,
		MetricsPath:   appCfg.Observability.Metrics.Path,
		ExternalLogin: appCfg.Auth.Mode != config.AuthModePassword,
		CookieDomain:  appCfg.HTTP.CookieDomain,
		AdminLanding:  appCfg.Site.AdminLanding,
		IsDev:         appCfg.IsDev,
		Logger:        logger,
	}
	if appCfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", appCfg.HTTP.CompressionLevel)
		services.Compression = &httpx.CompressionConfig{Level: appCfg.HTTP.CompressionLevel, Logger: logger}
	}
	if services.Guard.Maintenance() {
		logger.Warn("maintenance mode is on: only admins see the site", "page", services.Guard.MaintenancePath())
	}

	return httpx.NewRouter(services)
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	handler, err := BuildHTTPHandler(cfg)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return startServer(logger, handler, serverOptions{
		Addr:              cfg.Config.HTTP.Addr,
		ReadHeaderTimeout: cfg.Config.HTTP.ReadHeaderTimeout,
	}, cfg.ErrCh)
}

type serverOptions struct {
	Addr              string
	ReadHeaderTimeout time.Duration
}

func startServer(logger *slog.Logger, handler http.Handler, opts serverOptions, errCh chan<- error) (*http.Server, error) {
	// Guard against empty addr to avoid listening on Go default
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}
	readHeader := opts.ReadHeaderTimeout
	if readHeader <= 0 {
		readHeader = 10 * time.Second
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeader,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Bind before returning so a taken port fails startup instead of a goroutine.
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	go func() {
		logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				errCh <- err
			}
		}
	}()

	return server, nil
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	// Callers normally pass a deadline from HTTP_SHUTDOWN_TIMEOUT.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}

	if err := cfg.Server.Shutdown(ctx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
