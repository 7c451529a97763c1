// Package main provides the entrypoint for the TrafficPulse collector.
// The collector polls the traffic provider on a fixed interval, stores
// samples, and raises congestion and incident alerts.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/trafficpulse/trafficpulse/internal/api/middleware"
	"github.com/trafficpulse/trafficpulse/internal/collector"
	"github.com/trafficpulse/trafficpulse/internal/database"
	"github.com/trafficpulse/trafficpulse/internal/provider/resilience"
	"github.com/trafficpulse/trafficpulse/internal/telemetry"
	"github.com/trafficpulse/trafficpulse/internal/traffic"
	"github.com/trafficpulse/trafficpulse/internal/traffic/tomtom"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "trafficpulse-collector"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting TrafficPulse collector")

	apiKey := os.Getenv("TOMTOM_API_KEY")
	if apiKey == "" {
		log.Fatal().Msg("TOMTOM_API_KEY is required")
	}

	cfgFile := os.Getenv("COLLECTOR_CONFIG")
	if cfgFile == "" {
		cfgFile = "collector.yaml"
	}

	cfg, err := collector.LoadConfig(cfgFile)
	if err != nil {
		log.Fatal().Err(err).Str("config", cfgFile).Msg("failed to load collector config")
	}
	log.Info().
		Int("regions", len(cfg.Regions)).
		Dur("interval", cfg.Interval()).
		Msg("collector config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"
	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    os.Getenv("APP_ENV"),
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize the provider client behind a resilient HTTP client.
	clientCfg := resilience.DefaultClientConfig(tomtom.ProviderName)
	clientCfg.Timeout = cfg.RequestTimeout()
	httpClient := resilience.NewClient(clientCfg)
	resilience.GlobalRegistry.Register(tomtom.ProviderName, httpClient)

	providerMetrics, err := middleware.NewProviderMetrics(tomtom.ProviderName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create provider metrics")
	}

	provider := tomtom.NewClient(tomtom.ClientConfig{
		APIKey:     apiKey,
		HTTPClient: httpClient,
		Metrics:    providerMetrics,
		Logger:     log,
	})

	// Wire repositories, alert engine, and the collector itself.
	sampleRepo := traffic.NewPostgresSampleRepository(pool)
	alertRepo := traffic.NewPostgresAlertRepository(pool)
	engine := traffic.NewEngine(traffic.EngineConfig{
		Alerts:     alertRepo,
		Thresholds: cfg.EngineThresholds(),
		Dedup:      cfg.DedupPolicy(),
		Logger:     log,
	})

	c := collector.New(collector.CollectorConfig{
		Config:   cfg,
		Provider: provider,
		Samples:  sampleRepo,
		Engine:   engine,
		Health:   resilience.GlobalRegistry,
		Logger:   log,
	})

	// Health endpoint for the container runtime.
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Run collection cycles until interrupted. Shutdown waits for the
	// current cycle to finish; cycles never overlap.
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down collector")
	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("collector stopped")
}
