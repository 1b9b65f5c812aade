// Package main is the entry point for the uniform recommendation API server.
//
// It loads configuration, connects the database pool and the upstream weather
// provider, builds the HTTP server with the core chassis (middleware, routing,
// health checks), and starts listening for requests.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/BadgerOps/WOTSapp-sub001/internal/api/handlers"
	"github.com/BadgerOps/WOTSapp-sub001/internal/config"
	"github.com/BadgerOps/WOTSapp-sub001/internal/core"
	"github.com/BadgerOps/WOTSapp-sub001/internal/db"
	"github.com/BadgerOps/WOTSapp-sub001/internal/external"
	"github.com/BadgerOps/WOTSapp-sub001/internal/forecast"
	"github.com/BadgerOps/WOTSapp-sub001/internal/queue"
	"github.com/BadgerOps/WOTSapp-sub001/internal/recommendation"
	"github.com/BadgerOps/WOTSapp-sub001/internal/rules"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	// SSM resolution is bypassed when APP_ENV=local, so the provider is safe
	// to construct unconditionally.
	cfg, err := config.LoadConfig(config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("recommendation API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx := context.Background()

	location, err := time.LoadLocation(cfg.Uniform.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone %q: %w", cfg.Uniform.Timezone, err)
	}

	// Database pool and repositories.
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	recRepo := db.NewRecommendationRepository(pool)
	ruleRepo := db.NewRuleRepository(pool)
	slotRepo := db.NewSlotRepository(pool)
	uniformRepo := db.NewUniformRepository(pool)
	annRepo := db.NewAnnouncementRepository(pool)

	// Upstream weather provider.
	weatherClient := external.NewWeatherClient(
		&http.Client{Timeout: cfg.Weather.Timeout},
		external.WeatherClientConfig{
			APIKey:      cfg.Weather.APIKey,
			Location:    cfg.Weather.Location,
			BaseURL:     cfg.Weather.BaseURL,
			SnapshotTTL: cfg.Weather.SnapshotTTL,
			Logger:      logger,
		},
	)

	// Announcement event publisher.
	publisher, err := newAnnouncementPublisher(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing announcement publisher: %w", err)
	}

	// Recommendation workflow service.
	service := recommendation.NewService(recommendation.Config{
		Repo:          recRepo,
		Weather:       weatherClient,
		Rules:         ruleRepo,
		Uniforms:      uniformRepo,
		Announcements: annRepo,
		Events:        publisher,
		Evaluator: rules.NewEvaluator(
			rules.WithPrecipFallbackThreshold(cfg.Uniform.PrecipFallbackThreshold),
		),
		Logger:   logger,
		Location: location,
		Window: forecast.Window{
			StartMinutes: cfg.Uniform.ForecastWindowStartMinutes,
			EndMinutes:   cfg.Uniform.ForecastWindowEndMinutes,
		},
		TwilightMinutes: cfg.Uniform.TwilightWindowMinutes,
		Expiry:          cfg.Uniform.RecommendationExpiry,
	})

	// Build the server.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.OnShutdown(func() error {
		pool.Close()
		return nil
	})
	srv.HealthProbes = []core.HealthProbe{
		core.ProbeFunc{ProbeName: "database", Fn: pool.Ping},
	}

	// Wire the domain handlers.
	recHandler := handlers.NewRecommendationHandler(service, slotRepo, srv.Validator, logger)
	slotHandler := handlers.NewSlotHandler(slotRepo, uniformRepo, srv.Validator, logger)
	uniformHandler := handlers.NewUniformHandler(uniformRepo, logger)
	weatherHandler := handlers.NewWeatherHandler(weatherClient, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		recHandler.RegisterRoutes,
		slotHandler.RegisterRoutes,
		uniformHandler.RegisterRoutes,
		weatherHandler.RegisterRoutes,
	)

	// Mount all routes (middleware chain + versioned endpoints + health).
	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger)
}

// newAnnouncementPublisher builds the SQS-backed event publisher. The
// endpoint override supports LocalStack in local development.
func newAnnouncementPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*queue.AnnouncementPublisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}

	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = &cfg.AWS.EndpointURL
		}
	})

	return queue.NewAnnouncementPublisher(client, cfg.AWS.AnnouncementQueue, logger), nil
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Channel to capture server errors from ListenAndServe.
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal or server error.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with the configured deadline.
	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// Shutdown server resources (DB pool, etc.).
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: false,
	})
	return slog.New(handler)
}
