package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campiestivi/campi/config"
	"github.com/campiestivi/campi/internal/adapters/membership"
	"github.com/campiestivi/campi/internal/data"
	"github.com/campiestivi/campi/internal/domain/access"
	"github.com/campiestivi/campi/internal/observability/health"
	"github.com/campiestivi/campi/internal/observability/metrics"
	"github.com/campiestivi/campi/internal/service"
	"github.com/redis/go-redis/v9"
)

// healthPaths are probe endpoints that stay reachable during maintenance.
var healthPaths = []string{"/healthz", "/readyz"}

// externalSignInPaths are the OIDC and dev login routes, reachable during
// maintenance so an admin can still sign in.
var externalSignInPaths = []string{"/auth/login", "/auth/callback"}

// ServiceContainer holds all initialized services.
type ServiceContainer struct {
	Auth        *service.AuthService
	Resolver    *service.RoleResolver
	Camps       *service.CampService
	Children    *service.ChildService
	Profiles    *service.ProfileService
	Enrollments *service.EnrollmentService
	Dashboard   *service.DashboardService

	Guard   *access.Guard
	Health  *health.Checker
	Metrics *metrics.Metrics
}

// ServiceDeps contains dependencies for creating services.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

type serviceRepositories struct {
	Users       *data.UserRepo
	Camps       *data.CampRepo
	Children    *data.ChildRepo
	Enrollments *data.EnrollmentRepo
	Stats       *data.StatsRepo
	Rows        *data.RowStore
}

func buildRepositories(db *sql.DB) *serviceRepositories {
	return &serviceRepositories{
		Users:       data.NewUserRepo(db),
		Camps:       data.NewCampRepo(db),
		Children:    data.NewChildRepo(db),
		Enrollments: data.NewEnrollmentRepo(db),
		Stats:       data.NewStatsRepo(db),
		Rows:        data.NewRowStore(db),
	}
}

// NewServices wires repositories, the role resolver and the route guard.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps require a config")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("service deps require a database")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New()
	}

	repos := buildRepositories(deps.DB)

	var events service.AuthEventRecorder
	if m != nil {
		events = m
	}
	auth, err := BuildAuthService(ctx, AuthConfig{
		Auth:        cfg.Auth,
		RedisClient: deps.RedisClient,
		Users:       repos.Users,
		Events:      events,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	var recorder service.RoleRecorder
	if m != nil {
		recorder = m
	}
	resolver := service.NewRoleResolver(service.RoleResolverOptions{
		Identity:   auth,
		Membership: membership.NewStore(repos.Rows),
		Logger:     logger,
		Recorder:   recorder,
	})

	return ServiceContainer{
		Auth:     auth,
		Resolver: resolver,
		Camps:    service.NewCampService(service.CampServiceOptions{Repo: repos.Camps, Logger: logger}),
		Children: service.NewChildService(service.ChildServiceOptions{
			Repo:   repos.Children,
			Rows:   repos.Rows,
			Logger: logger,
		}),
		Profiles: service.NewProfileService(repos.Rows),
		Enrollments: service.NewEnrollmentService(service.EnrollmentServiceOptions{
			Repos: service.EnrollmentRepos{
				Enrollments: repos.Enrollments,
				Children:    repos.Children,
				Camps:       repos.Camps,
			},
			Logger: logger,
		}),
		Dashboard: service.NewDashboardService(service.DashboardServiceOptions{
			Stats:       repos.Stats,
			Users:       repos.Users,
			Enrollments: repos.Enrollments,
		}),
		Guard:   BuildGuard(cfg),
		Health:  buildHealthChecker(deps.DB, deps.RedisClient),
		Metrics: m,
	}, nil
}

// BuildGuard turns the site settings into a route guard. The maintenance flag
// is read here once and fixed for the process lifetime.
func BuildGuard(cfg *config.AppConfig) *access.Guard {
	site := cfg.Site
	extra := append([]string(nil), healthPaths...)
	if cfg.Observability.Metrics.Enabled {
		extra = append(extra, cfg.Observability.Metrics.Path)
	}
	var signIn []string
	if cfg.Auth.Mode != config.AuthModePassword {
		signIn = externalSignInPaths
	}
	return access.NewGuard(access.GuardConfig{
		Policy: access.NewPolicy(access.PolicyConfig{
			LoginPath:    site.LoginPath,
			AdminPrefix:  site.AdminPrefix,
			UserPrefixes: site.UserPrefixes,
		}),
		Maintenance:      site.MaintenanceMode,
		MaintenancePath:  site.MaintenancePath,
		AdminLanding:     site.AdminLanding,
		UserLanding:      "/",
		StaticPrefix:     site.StaticPrefix,
		APIPrefix:        site.APIPrefix,
		ExtraSystemPaths: extra,
		SignInPaths:      signIn,
	})
}

func buildHealthChecker(db *sql.DB, client redis.UniversalClient) *health.Checker {
	probes := map[string]health.Probe{"postgres": health.DatabaseProbe(db)}
	if client != nil {
		probes["redis"] = health.RedisProbe(client)
	}
	return health.NewChecker(health.Options{Probes: probes})
}

// ServiceOrchestrationConfig contains configuration for running services.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts the HTTP server and blocks until a shutdown
// signal arrives or the server fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	server, err := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
		ErrCh:    errCh,
	})
	if err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return waitForShutdown(shutdownConfig{
		quit:       quit,
		errCh:      errCh,
		httpServer: server,
		timeout:    cfg.Config.HTTP.ShutdownTimeout,
		logger:     logger,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	quit       <-chan os.Signal
	errCh      <-chan error
	httpServer *http.Server
	timeout    time.Duration
	logger     *slog.Logger
}

// waitForShutdown waits for shutdown signal or server error.
func waitForShutdown(cfg shutdownConfig) error {
	select {
	case <-cfg.quit:
		cfg.logger.Info("shutting down...")
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("http server error", "error", err)
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

func gracefulStop(cfg shutdownConfig) error {
	timeout := cfg.timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return ShutdownHTTPServer(ShutdownConfig{
		Context: ctx,
		Server:  cfg.httpServer,
		Logger:  cfg.logger,
	})
}
