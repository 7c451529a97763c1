// Package api provides the HTTP API for TrafficPulse.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/trafficpulse/trafficpulse/internal/api/handler"
	"github.com/trafficpulse/trafficpulse/internal/api/middleware"
	"github.com/trafficpulse/trafficpulse/internal/provider/resilience"
	"github.com/trafficpulse/trafficpulse/internal/route"
	"github.com/trafficpulse/trafficpulse/internal/traffic"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	ServiceName    string
	Metrics        *middleware.Metrics
	TokenVerifier  *middleware.TokenVerifier
	TrafficService *traffic.Service
	Samples        traffic.SampleRepository
	Alerts         traffic.AlertRepository
	RouteService   *route.Service
	Syncer         handler.Syncer
	DB             handler.Pinger
	Providers      *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "trafficpulse-api"
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
	r.Use(middleware.RequireJSON)          // 415 on non-JSON request bodies
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB, cfg.Providers)
	trafficHandler := handler.NewTrafficHandler(cfg.TrafficService, cfg.Samples)
	alertHandler := handler.NewAlertHandler(cfg.Alerts)
	routeHandler := handler.NewRouteHandler(cfg.RouteService)
	metadataHandler := handler.NewMetadataHandler()

	// Create auth middleware for mutating endpoints
	authMiddleware := middleware.Auth(cfg.TokenVerifier)

	// Create rate limit middleware for different endpoint categories
	writeRateLimit := middleware.RateLimitBySubject(middleware.WriteRateLimit)  // 20 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 120 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Metadata endpoints (public) - standard rate limiting
		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/enums", metadataHandler.GetEnums)
		})

		// Traffic read endpoints (public)
		r.Route("/traffic", func(r chi.Router) {
			r.With(standardRateLimit).Get("/conditions", trafficHandler.GetConditions)
			r.With(expensiveRateLimit).Get("/history", trafficHandler.GetHistory)
			r.With(standardRateLimit).Get("/samples", trafficHandler.ListSamples)
		})

		// Alert read endpoints (public)
		r.Route("/alerts", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", alertHandler.ListAlerts)
			r.Get("/active", alertHandler.ListActiveAlerts)
		})

		// Mirror sync (authenticated, write rate limit)
		if cfg.Syncer != nil {
			syncHandler := handler.NewSyncHandler(cfg.Syncer)
			r.With(authMiddleware, writeRateLimit).Post("/sync", syncHandler.TriggerSync)
		}

		// Monitored routes - reads public, writes authenticated
		r.Route("/routes", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", routeHandler.ListRoutes)
			r.With(authMiddleware, writeRateLimit).Post("/", routeHandler.CreateRoute)
			r.Route("/{routeId}", func(r chi.Router) {
				r.With(standardRateLimit).Get("/", routeHandler.GetRoute)
				r.With(authMiddleware, writeRateLimit).Put("/", routeHandler.UpdateRoute)
				r.With(authMiddleware, writeRateLimit).Delete("/", routeHandler.DeleteRoute)
			})
		})
	})

	return r
}
