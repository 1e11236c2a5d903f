// Package metrics holds campi's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obserrors "github.com/campiestivi/campi/internal/observability/errors"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultDenied  = "denied"
)

// Metrics is the set of collectors registered on one Registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	GuardDecisions      *prometheus.CounterVec
	RoleResolutions     *prometheus.CounterVec
	AuthEvents          *prometheus.CounterVec
}

// New creates the collectors and registers them, plus the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campi_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campi_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		GuardDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campi_guard_decisions_total",
				Help: "Route guard outcomes by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		RoleResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campi_role_resolutions_total",
				Help: "Role resolutions by resulting role and lookup outcome",
			},
			[]string{"role", "outcome"},
		),
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campi_auth_events_total",
				Help: "Sign-up, sign-in and sign-out attempts",
			},
			[]string{"event", "result", "error_class"},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GuardDecisions,
		m.RoleResolutions,
		m.AuthEvents,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one finished request. route should be a pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveGuard records one route guard decision.
func (m *Metrics) ObserveGuard(kind, reason string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(kind, reason).Inc()
}

// ObserveRoleResolution records the role a request resolved to and why.
func (m *Metrics) ObserveRoleResolution(role, outcome string) {
	if m == nil {
		return
	}
	m.RoleResolutions.WithLabelValues(role, outcome).Inc()
}

// ObserveAuthEvent records a sign-up, sign-in or sign-out attempt.
func (m *Metrics) ObserveAuthEvent(event, result string, err error) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(event, result, obserrors.Classify(err)).Inc()
}
