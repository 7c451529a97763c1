// Package main provides the entrypoint for the TrafficPulse API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/trafficpulse/trafficpulse/internal/api"
	"github.com/trafficpulse/trafficpulse/internal/api/middleware"
	"github.com/trafficpulse/trafficpulse/internal/database"
	"github.com/trafficpulse/trafficpulse/internal/mirror"
	"github.com/trafficpulse/trafficpulse/internal/provider/resilience"
	"github.com/trafficpulse/trafficpulse/internal/route"
	"github.com/trafficpulse/trafficpulse/internal/telemetry"
	"github.com/trafficpulse/trafficpulse/internal/traffic"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "trafficpulse-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting TrafficPulse API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize token verifier (tokens are issued by the identity provider)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	verifier := middleware.NewTokenVerifier(middleware.TokenVerifierConfig{
		SigningKey: jwtSigningKey,
		Issuer:     getEnvOrDefault("JWT_ISSUER", "https://id.trafficpulse.io"),
		Audience:   getEnvOrDefault("JWT_AUDIENCE", "trafficpulse-api"),
	})

	// Initialize traffic repositories and services
	sampleRepo := traffic.NewPostgresSampleRepository(pool)
	alertRepo := traffic.NewPostgresAlertRepository(pool)
	trafficService := traffic.NewService(sampleRepo, log)
	log.Info().Msg("traffic service initialized")

	// Initialize route repository and service
	routeRepo := route.NewPostgresRepository(pool)
	routeService := route.NewService(routeRepo)
	log.Info().Msg("route service initialized")

	// Initialize mirror bridge (optional, requires a Pub/Sub project)
	var syncer *mirror.Bridge
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		publisher, pubErr := mirror.NewPubSubPublisher(ctx, mirror.PubSubConfig{
			ProjectID: projectID,
			TopicName: getEnvOrDefault("PUBSUB_MIRROR_TOPIC", "traffic-conditions"),
			Logger:    log,
		})
		if pubErr != nil {
			log.Fatal().Err(pubErr).Msg("failed to initialize mirror publisher")
		}
		defer func() {
			if closeErr := publisher.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close mirror publisher")
			}
		}()

		syncer = mirror.NewBridge(mirror.BridgeConfig{
			Conditions: trafficService,
			Publisher:  publisher,
			Logger:     log,
		})
		log.Info().Str("project", projectID).Msg("mirror bridge initialized")
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - mirror sync endpoint disabled")
	}

	// Create router with configuration
	routerCfg := api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		TokenVerifier:  verifier,
		TrafficService: trafficService,
		Samples:        sampleRepo,
		Alerts:         alertRepo,
		RouteService:   routeService,
		DB:             pool,
		Providers:      resilience.GlobalRegistry,
	}
	if syncer != nil {
		routerCfg.Syncer = syncer
	}
	router := api.NewRouter(routerCfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
