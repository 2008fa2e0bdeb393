package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	// None of these may panic.
	m.IncInFlight()
	m.DecInFlight()
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
	m.LoginAttempt(LoginSuccess)
	m.Registered()
	m.EntryCreated()
	m.RateLimited("/login")
}

func TestCounters(t *testing.T) {
	m := New()

	m.LoginAttempt(LoginSuccess)
	m.LoginAttempt(LoginWrongPassword)
	m.LoginAttempt(LoginWrongPassword)
	m.EntryCreated()
	m.ObserveRequest("GET", "/serve_image/{id}", 404, 3*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues(LoginSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues(LoginWrongPassword)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/serve_image/{id}", "404")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Registered()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "travel_journal_auth_registrations_total 1"), "body missing registrations counter")
	assert.True(t, strings.Contains(body, "go_goroutines"), "body missing runtime metrics")
}

func TestIndependentRegistries(t *testing.T) {
	// Two instances in one process must not collide.
	a, b := New(), New()
	a.EntryCreated()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.entries))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.entries))
}
