// Package api provides the HTTP API for PulseWatch.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pulsewatch/pulsewatch/internal/api/handler"
	"github.com/pulsewatch/pulsewatch/internal/api/middleware"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Target identifies the monitored entity reports are served for.
	Target string

	DB        handler.Pinger
	Reports   handler.ReportStore
	Generator handler.ReportGenerator
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "pulsewatch-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB)
	reportHandler := handler.NewReportHandler(cfg.Target, cfg.Reports, cfg.Generator)

	// Create rate limit middleware for different endpoint categories
	reportRateLimit := middleware.RateLimitByIP(middleware.ReportRateLimit)     // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Report endpoints - generation scans a full day of incidents,
		// so it gets the stricter limit
		r.Route("/reports", func(r chi.Router) {
			r.With(standardRateLimit).Get("/daily", reportHandler.GetDailyReport)
			r.With(reportRateLimit).Post("/daily", reportHandler.GenerateDailyReport)
		})
	})

	return r
}
