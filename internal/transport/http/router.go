package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GravO8/mrs-dl/internal/config"
	"github.com/GravO8/mrs-dl/internal/middleware"
)

// VersionEndpoint serves build information
const VersionEndpoint = "/version"

// NewRouter mounts the health, version and metrics endpoints. metrics may be
// nil when no metric exporter is configured, tracing when requests are not traced.
func NewRouter(logger *slog.Logger, status *StatusHandler, metrics http.Handler, tracing *middleware.OTelMiddleware) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	if tracing != nil {
		r.Use(tracing.Handler)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get(config.HealthEndpoint, status.Health)
	r.Get(VersionEndpoint, status.Version)
	if metrics != nil {
		r.Handle(config.MetricsEndpoint, metrics)
	}
	return r
}

// NewServer wraps handler in a server with conservative timeouts
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
