package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newUnregistered builds a Metrics outside the default registry so tests
// can call it repeatedly without tripping duplicate registration.
func newUnregistered() *Metrics {
	return &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "test_http_requests_total",
		}, []string{"method", "status"}),
		endpointLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "test_endpoint_latency_seconds",
		}, []string{"endpoint"}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "test_auth_failures_total",
		}),
	}
}

func TestMiddlewareCountsByMethodAndStatus(t *testing.T) {
	m := newUnregistered()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/credentials", nil))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "201")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.authFailures))
}

func TestMiddlewareDefaultsToOK(t *testing.T) {
	m := newUnregistered()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"balance":0}`))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/balance/acct-1", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "200")))
}

func TestMiddlewareCountsAuthFailures(t *testing.T) {
	m := newUnregistered()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/credentials/abc", nil))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authFailures))
}

func TestObserveEndpointLatency(t *testing.T) {
	m := newUnregistered()
	m.ObserveEndpointLatency("/v1/credentials", 0.042)
	m.ObserveEndpointLatency("/v1/credentials", 0.007)

	count := testutil.CollectAndCount(m.endpointLatency)
	assert.Equal(t, 1, count, "both samples land in one endpoint series")
}
