// Package httptransport assembles the ledger's HTTP surface: the shared
// middleware stack, the authenticated /v1 API, the service-key /internal
// API, and the operational endpoints. Business logic stays in the service
// layer; this package only composes.
package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"doceo/internal/ledger/handler"
	"doceo/internal/platform/health"
	"doceo/internal/platform/metrics"
	"doceo/internal/platform/tickclock"
	"doceo/pkg/platform/middleware/apikey"
	"doceo/pkg/platform/middleware/auth"
	"doceo/pkg/platform/middleware/metadata"
	"doceo/pkg/platform/middleware/request"
	"doceo/pkg/platform/middleware/requesttick"
	"doceo/pkg/platform/validation"
)

const defaultTimeout = 30 * time.Second

// Config carries everything the router composes. Ledger, Ticks, JWT and
// Logger are required. The rest degrade: a nil Health or Metrics drops that
// surface, a nil Clock leaves the clock endpoints unmounted, and empty
// ServiceKeyHashes disable the internal API rather than failing open.
type Config struct {
	Ledger *handler.Handler
	Health *health.Handler
	Clock  *tickclock.Handler
	Ticks  requesttick.Source
	JWT    auth.JWTValidator

	ServiceKeyHashes []string
	TrustedProxies   []netip.Prefix

	Metrics *metrics.Metrics
	Logger  *slog.Logger

	Timeout      time.Duration
	MaxBodyBytes int64
}

// NewRouter wires the middleware stack and route groups.
func NewRouter(cfg Config) http.Handler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = validation.MaxBodySize
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	// Metadata runs before Logger so log lines carry the resolved client IP.
	r.Use(metadata.NewMiddleware(&metadata.Config{TrustedProxies: cfg.TrustedProxies}).Handler)
	r.Use(request.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(request.LatencyMiddleware(cfg.Metrics))
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(request.Timeout(timeout))
	r.Use(request.BodyLimit(maxBody))
	r.Use(request.ContentTypeJSON)
	r.Use(requesttick.Middleware(cfg.Ticks))

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.RequireAuth(cfg.JWT, cfg.Logger))
		cfg.Ledger.Register(r)
		r.Route("/admin", cfg.Ledger.RegisterAdmin)
	})

	r.Route("/internal", func(r chi.Router) {
		r.Use(apikey.RequireServiceKey(cfg.ServiceKeyHashes, cfg.Logger))
		cfg.Ledger.RegisterInternal(r)
		if cfg.Clock != nil {
			cfg.Clock.Register(r)
		}
	})

	return r
}
