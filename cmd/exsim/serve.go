package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/stemsi/exsim-backend/internal/config"
	"github.com/stemsi/exsim-backend/internal/database"
	"github.com/stemsi/exsim-backend/internal/engine"
	"github.com/stemsi/exsim-backend/internal/handler"
	"github.com/stemsi/exsim-backend/internal/logger"
	"github.com/stemsi/exsim-backend/internal/repository"
	"github.com/stemsi/exsim-backend/internal/router"
	"github.com/stemsi/exsim-backend/internal/service"
	"github.com/stemsi/exsim-backend/internal/validator"
	"github.com/stemsi/exsim-backend/internal/worker"
)

const (
	shutdownTimeout    = 5 * time.Second
	workerDrainTimeout = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("report_sink", cfg.ReportSink).
		Msg("Starting exsim backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to PostgreSQL")
		return err
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to Redis")
		return err
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	snapshotRepo := repository.NewSnapshotRepository(rdb, cfg.SnapshotTTL)
	reportRepo := repository.NewExamReportRepository(pool)
	publisher := repository.NewEventPublisher(rdb)

	// Finished reports go straight to PostgreSQL or through the queue.
	var reportStore engine.ReportStore = reportRepo
	if cfg.ReportSink == config.ReportSinkQueue {
		reportStore = repository.NewReportQueue(rdb)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	catalogService := service.NewCatalogService()
	sessionService := service.NewExamSessionService(
		snapshotRepo,
		reportStore,
		reportRepo,
		catalogService,
		engine.Options{
			Policy:         policyFromConfig(cfg),
			Publisher:      publisher,
			ArchiveTimeout: cfg.ArchiveTimeout,
		},
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	healthChecks := map[string]handler.HealthCheck{
		"postgres": pool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
	handlers := &router.Handlers{
		Catalog: handler.NewCatalogHandler(catalogService),
		Exam:    handler.NewExamHandler(sessionService, log),
		WS:      handler.NewWSHandler(rdb, sessionService, log, cfg.AllowedOrigins),
		Monitor: handler.NewMonitorHandler(rdb, sessionService, log),
		System:  handler.NewSystemHandler(rdb, healthChecks, cfg.ReportSink, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	if cfg.ReportSink == config.ReportSinkQueue {
		reportWorker := worker.NewReportWorker(reportRepo, rdb, log)
		go func() {
			defer close(workerDone)
			reportWorker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")
	case runErr = <-serverErr:
		log.Error().Err(runErr).Msg("Server error")
	}

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the report batch to flush.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(workerDrainTimeout):
		log.Warn().Msg("Report worker did not drain in time")
	}

	log.Info().Msg("Shutdown complete")
	return runErr
}
