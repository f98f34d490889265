package metrics

import (
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNew_RegistersCollectors(t *testing.T) {
	m := New()
	m.RequestsTotal.WithLabelValues("GET", "/health", "200").Inc()
	m.RequestDuration.WithLabelValues("GET", "/health").Observe(0.01)
	m.NotificationsSent.WithLabelValues("email", "sent").Inc()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, name := range []string{
		"http_requests_total",
		"http_request_duration_seconds",
		"notifications_sent_total",
		"go_goroutines",
	} {
		assert.True(t, names[name], "missing metric family %s", name)
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.NotificationsSent.WithLabelValues("sms", "published").Inc()

	assert.Equal(t, 1, testutil.CollectAndCount(a.NotificationsSent))
	assert.Equal(t, 0, testutil.CollectAndCount(b.NotificationsSent))
}

func TestHandler(t *testing.T) {
	m := New()
	m.NotificationsSent.WithLabelValues("email", "failed").Inc()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `notifications_sent_total{channel="email",status="failed"} 1`)
}
