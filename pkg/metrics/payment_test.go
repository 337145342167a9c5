package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPaymentMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPaymentMetrics(reg)
	require.NoError(t, err)

	m.Initiation("created")
	m.Initiation("created")
	m.Transition("SUCCESS", "webhook", true)
	m.Transition("FAILED", "reconcile", false)
	m.Swept("failed", 3)
	m.Swept("skipped", 0)
	m.ObserveSince("gateway", "verify", time.Now())

	require.Equal(t, 2.0, testutil.ToFloat64(m.initiations.WithLabelValues("created")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("SUCCESS", "webhook", "true")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.sweeps.WithLabelValues("failed")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.sweeps.WithLabelValues("skipped")))
}

func TestPaymentMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPaymentMetrics(reg)
	require.NoError(t, err)
	b, err := NewPaymentMetrics(reg)
	require.NoError(t, err)

	a.Webhook("acked")
	require.Equal(t, 1.0, testutil.ToFloat64(b.webhooks.WithLabelValues("acked")))
}

func TestPaymentMetrics_NilIsNoop(t *testing.T) {
	var m *PaymentMetrics
	require.NotPanics(t, func() {
		m.Initiation("x")
		m.Webhook("x")
		m.Transition("x", "y", true)
		m.Swept("x", 1)
		m.DispatchFailed("x")
		m.ObserveSince("a", "b", time.Now())
	})
}

func TestHTTPMetrics_LabelsByRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetrics(reg)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/v1/payments/:id/status", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, path := range []string{"/api/v1/payments/a/status", "/api/v1/payments/b/status", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Equal(t, 2.0, testutil.ToFloat64(m.reqCnt.WithLabelValues("200", "GET", "/api/v1/payments/:id/status")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.reqCnt.WithLabelValues("404", "GET", unmatchedRoute)))
}
