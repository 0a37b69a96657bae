// Package main provides the entrypoint for the PulseWatch monitoring worker.
// The worker probes the configured health endpoint on a fixed cadence,
// consolidates observations into the incident ledger, and generates the daily
// report on schedule.
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
	"github.com/spf13/pflag"

	"github.com/pulsewatch/pulsewatch/internal/config"
	"github.com/pulsewatch/pulsewatch/internal/database"
	"github.com/pulsewatch/pulsewatch/internal/monitor"
	"github.com/pulsewatch/pulsewatch/internal/probe"
	"github.com/pulsewatch/pulsewatch/internal/scheduler"
	"github.com/pulsewatch/pulsewatch/internal/status"
	"github.com/pulsewatch/pulsewatch/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "pulsewatch-worker"

	configPath := pflag.String("config", "", "path to YAML config file")
	pflag.Parse()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting PulseWatch worker")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Worker also exposes a health endpoint for the container platform
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

	repo := status.NewPostgresRepository(pool)

	ledger := status.NewLedger(status.LedgerConfig{
		Incidents: repo,
		Logger:    log,
	})

	aggregator := status.NewAggregator(status.AggregatorConfig{
		Incidents: repo,
		Reports:   repo,
		Logger:    log,
	})

	prober := probe.NewClient(probe.ClientConfig{
		URL:     cfg.HealthCheckURL,
		Timeout: cfg.ProbeTimeout(),
		Logger:  log,
	})

	mon := monitor.New(monitor.Config{
		Target:     cfg.Target,
		Prober:     prober,
		Ledger:     ledger,
		Components: repo,
		Logger:     log,
	})

	sched, err := scheduler.New(scheduler.Config{
		Target:         cfg.Target,
		ProbeInterval:  cfg.ProbeInterval(),
		ReportSchedule: cfg.ReportSchedule,
		Runner:         mon,
		Aggregator:     aggregator,
		Logger:         log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}

	sched.Start()
	log.Info().
		Str("target", cfg.Target).
		Str("url", cfg.HealthCheckURL).
		Dur("interval", cfg.ProbeInterval()).
		Str("report_schedule", cfg.ReportSchedule).
		Msg("monitoring started")

	// Health check endpoint
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
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("scheduler forced to shutdown")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
