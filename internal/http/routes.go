package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	campi "github.com/campiestivi/campi"
	"github.com/campiestivi/campi/internal/domain/access"
	"github.com/campiestivi/campi/internal/observability/health"
	"github.com/campiestivi/campi/internal/observability/metrics"
	"github.com/campiestivi/campi/internal/ports"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth     AuthServiceInterface
	Resolver ports.RoleResolver
	Guard    *access.Guard

	Camps       CampsService
	Children    ChildrenService
	Profiles    ProfileService
	Enrollments EnrollmentsService
	Dashboard   DashboardService

	Health      *health.Checker  // optional: /healthz and /readyz
	Metrics     *metrics.Metrics // optional: request metrics and the scrape endpoint
	MetricsPath string

	// ExternalLogin mounts /auth/login and /auth/callback.
	ExternalLogin bool
	CookieDomain  string
	AdminLanding  string
	// Compression enables gzip when non-nil.
	Compression *CompressionConfig

	// TemplateFS and StaticFS override where pages and assets come from.
	// When nil they are read from disk in dev mode and from the binary otherwise.
	TemplateFS fs.FS
	StaticFS   fs.FS
	IsDev      bool
	Logger     *slog.Logger
}

// NewRouter wires pages, the auth endpoints and the operational endpoints
// behind the middleware stack:
// Recover -> Logging -> Compression -> CSRF -> RouteGuard -> mux.
func NewRouter(s RouterServices) (http.Handler, error) {
	if s.Auth == nil || s.Resolver == nil || s.Guard == nil {
		return nil, errors.New("router requires Auth, Resolver and Guard")
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, staticFS, err := resolveAssetFS(s)
	if err != nil {
		return nil, err
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("create template renderer: %w", err)
	}

	loginPath := s.Guard.Policy().LoginPath()
	gate := NewPageGate(PageGateOptions{
		Resolver:  s.Resolver,
		LoginPath: loginPath,
		Landing:   "/",
		Logger:    logger,
		Metrics:   s.Metrics,
	})
	ui := &UIHandlers{
		T:           tr,
		Gate:        gate,
		Camps:       s.Camps,
		Children:    s.Children,
		Profiles:    s.Profiles,
		Enrollments: s.Enrollments,
		Dashboard:   s.Dashboard,
		Logger:      logger,
	}
	authHandlers := &AuthHandlers{
		Svc:           s.Auth,
		Resolver:      s.Resolver,
		T:             tr,
		ExternalLogin: s.ExternalLogin,
		CookieDomain:  s.CookieDomain,
		LoginPath:     loginPath,
		AdminLanding:  s.AdminLanding,
		Logger:        logger,
	}

	mux := http.NewServeMux()
	registerPublicRoutes(mux, ui, s.Guard.MaintenancePath())
	registerAuthRoutes(mux, authHandlers, loginPath, s.ExternalLogin)
	registerAccountRoutes(mux, ui)
	registerAdminRoutes(mux, ui)
	registerOpsRoutes(mux, s)
	mux.Handle("GET /static/", staticHandler(staticFS))
	mux.HandleFunc("/", ui.NotFound)

	mws := []func(http.Handler) http.Handler{
		Recover(logger),
		Logging(LoggingOptions{Logger: logger, Metrics: s.Metrics}),
	}
	if s.Compression != nil {
		mws = append(mws, Compression(*s.Compression))
	}
	mws = append(mws,
		CSRFProtection(CSRFConfig{CookieDomain: s.CookieDomain}),
		RouteGuard(GuardOptions{
			Guard:    s.Guard,
			Resolver: s.Resolver,
			Rewrite:  http.HandlerFunc(ui.Maintenance),
			Logger:   logger,
			Metrics:  s.Metrics,
		}),
	)
	return Chain(recordRoute(mux), mws...), nil
}

func registerPublicRoutes(mux *http.ServeMux, ui *UIHandlers, maintenancePath string) {
	mux.HandleFunc("GET /{$}", ui.Home)
	mux.HandleFunc("GET /About", ui.About)
	mux.HandleFunc("GET /Campi", ui.CampsPage)
	mux.HandleFunc("GET /api/camps", ui.CampsAPI)
	mux.HandleFunc("GET "+maintenancePath, ui.Maintenance)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, loginPath string, external bool) {
	mux.HandleFunc("GET "+loginPath, h.LoginPage)
	mux.HandleFunc("POST "+loginPath, h.Login)
	mux.HandleFunc("GET /Register", h.RegisterPage)
	mux.HandleFunc("POST /Register", h.Register)
	mux.HandleFunc("POST /Logout", h.Logout)
	mux.HandleFunc("GET /api/auth/role", h.Role)
	if external {
		mux.HandleFunc("GET /auth/login", h.ExternalLoginStart)
		mux.HandleFunc("GET /auth/callback", h.ExternalLoginCallback)
	}
}

func registerAccountRoutes(mux *http.ServeMux, ui *UIHandlers) {
	mux.HandleFunc("GET /Utente", ui.Account)
	mux.HandleFunc("POST /Utente/profilo", ui.UpdateProfile)
	mux.HandleFunc("GET /Utente/figli/nuovo", ui.NewChildForm)
	mux.HandleFunc("POST /Utente/figli", ui.CreateChild)
	mux.HandleFunc("GET /Utente/figli/{id}", ui.EditChildForm)
	mux.HandleFunc("POST /Utente/figli/{id}", ui.UpdateChild)
	mux.HandleFunc("POST /Utente/figli/{id}/elimina", ui.DeleteChild)
	mux.HandleFunc("GET /Iscrizione", ui.EnrollPage)
	mux.HandleFunc("POST /Iscrizione", ui.EnrollStep)
}

func registerAdminRoutes(mux *http.ServeMux, ui *UIHandlers) {
	mux.Handle("GET /admin/{$}", http.RedirectHandler("/admin/Dashboard", http.StatusSeeOther))
	mux.HandleFunc("GET /admin/Dashboard", ui.AdminDashboard)
	mux.HandleFunc("GET /admin/Campi", ui.AdminCamps)
	mux.HandleFunc("GET /admin/Campi/nuovo", ui.NewCampForm)
	mux.HandleFunc("POST /admin/Campi", ui.CreateCamp)
	mux.HandleFunc("GET /admin/Campi/{id}", ui.EditCampForm)
	mux.HandleFunc("POST /admin/Campi/{id}", ui.UpdateCamp)
	mux.HandleFunc("POST /admin/Campi/{id}/elimina", ui.DeleteCamp)
	mux.HandleFunc("POST /admin/Iscrizioni/{id}/stato", ui.SetEnrollmentStatus)
}

func registerOpsRoutes(mux *http.ServeMux, s RouterServices) {
	if s.Health != nil {
		mux.HandleFunc("GET /healthz", s.Health.Liveness)
		mux.HandleFunc("GET /readyz", s.Health.Readiness)
	}
	if s.Metrics != nil {
		path := s.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, s.Metrics.Handler())
	}
}

// resolveAssetFS picks the template and static filesystems: explicit
// overrides first, then disk in dev mode, then the embedded copies.
func resolveAssetFS(s RouterServices) (fs.FS, fs.FS, error) {
	templateFS, staticFS := s.TemplateFS, s.StaticFS
	if s.IsDev {
		if templateFS == nil {
			templateFS = os.DirFS(TemplatePathFromRoot)
		}
		if staticFS == nil {
			staticFS = os.DirFS(StaticPathFromRoot)
		}
	}
	if templateFS == nil {
		sub, err := fs.Sub(campi.TemplateFS, TemplatePathFromRoot)
		if err != nil {
			return nil, nil, fmt.Errorf("embedded templates: %w", err)
		}
		templateFS = sub
	}
	if staticFS == nil {
		sub, err := fs.Sub(campi.StaticFS, StaticPathFromRoot)
		if err != nil {
			return nil, nil, fmt.Errorf("embedded static assets: %w", err)
		}
		staticFS = sub
	}
	return templateFS, staticFS, nil
}

// staticHandler serves /static/* with a short public cache lifetime.
func staticHandler(fsys fs.FS) http.Handler {
	files := http.StripPrefix("/static/", http.FileServer(http.FS(fsys)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}
