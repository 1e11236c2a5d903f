package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveGuard("redirect", "admin_sign_in")
	m.ObserveGuard("redirect", "admin_sign_in")
	m.ObserveRoleResolution("guest", "identity_absent")
	m.ObserveAuthEvent("sign_in", ResultError, errors.New("boom"))
	m.ObserveHTTP(http.MethodGet, "/admin/Dashboard", http.StatusSeeOther, 5*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("redirect", "admin_sign_in")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RoleResolutions.WithLabelValues("guest", "identity_absent")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AuthEvents.WithLabelValues("sign_in", ResultError, "other")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/admin/Dashboard", "303")), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveGuard("pass", "allowed")
		m.ObserveRoleResolution("user", "membership_absent")
		m.ObserveAuthEvent("sign_out", ResultSuccess, nil)
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveGuard("rewrite", "maintenance")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `campi_guard_decisions_total{kind="rewrite",reason="maintenance"} 1`)
}
