// Package metrics registers the process-wide Prometheus metrics for the
// HTTP surface. Ledger operation counters live with the ledger module.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	httpRequests    *prometheus.CounterVec
	endpointLatency *prometheus.HistogramVec
	authFailures    prometheus.Counter
}

// New creates and registers the HTTP metrics with the default registry.
// Call it once per process; a second call panics on re-registration.
func New() *Metrics {
	return &Metrics{
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "doceo_http_requests_total",
			Help: "Completed HTTP requests by method and status code",
		}, []string{"method", "status"}),
		endpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "doceo_endpoint_latency_seconds",
			Help:    "Request latency per endpoint in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		authFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "doceo_auth_failures_total",
			Help: "Requests rejected with 401 Unauthorized",
		}),
	}
}

// Middleware counts every completed request by method and final status.
// A 401 also feeds the auth failure counter, whichever middleware
// produced it.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.IncrementHTTPRequests(r.Method, strconv.Itoa(rec.status))
		if rec.status == http.StatusUnauthorized {
			m.IncrementAuthFailures()
		}
	})
}

// ObserveEndpointLatency records the latency for a given endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.endpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}

// IncrementHTTPRequests records one completed request.
func (m *Metrics) IncrementHTTPRequests(method, status string) {
	m.httpRequests.WithLabelValues(method, status).Inc()
}

// IncrementAuthFailures records one rejected request.
func (m *Metrics) IncrementAuthFailures() {
	m.authFailures.Inc()
}

// statusRecorder captures the status a handler writes without buffering
// the body. Status defaults to 200 for handlers that never call
// WriteHeader.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
