package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/geodemo/popsynth/internal/config"
	"github.com/geodemo/popsynth/internal/handlers"
	"github.com/geodemo/popsynth/internal/logger"
	"github.com/geodemo/popsynth/internal/middleware"
	"github.com/geodemo/popsynth/internal/store"
	"github.com/geodemo/popsynth/internal/worker"
)

func main() {
	// Record start time for uptime tracking
	startTime := time.Now()

	envFile := flag.String("env-file", ".env", "Path to .env configuration file")
	workerID := flag.String("worker-id", "", "Identifier for the embedded run worker (auto-generated if not provided)")
	flag.Parse()

	if *workerID == "" {
		*workerID = "worker-" + uuid.New().String()
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.New(cfg.LogLevel)

	db, err := store.Open(store.Config{Path: cfg.LedgerPath})
	if err != nil {
		logger.Error("Failed to open ledger database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		logger.Error("Failed to create output directory", "dir", cfg.OutputDir, "error", err)
		os.Exit(1)
	}

	// Embedded run worker: claims pending runs enqueued through the HTTP
	// surface and drives the synthesis pipeline for each.
	executor := &worker.PipelineExecutor{
		Queries:       db.Ledger,
		TilesPath:     cfg.TilesPath,
		AddressesPath: cfg.AddressesPath,
		OutputDir:     cfg.OutputDir,
		OutputFormat:  cfg.OutputFormat,
		BatchSize:     cfg.BatchSize,
		Workers:       cfg.Workers,
		Logger:        logger,
	}
	runWorker := worker.NewRunWorker(db.Ledger, executor, *workerID, cfg.PollInterval, cfg.Concurrency, logger)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go func() {
		if err := runWorker.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Run worker stopped", "error", err)
		}
	}()

	router := setupRouter(logger, db, startTime)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", "addr", server.Addr, "worker_id", *workerID)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exited")
}

func setupRouter(logger *slog.Logger, db *store.DB, startTime time.Time) *chi.Mux {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.RequestID)     // Request ID tracking
	r.Use(chimiddleware.RealIP)        // Real IP detection
	r.Use(middleware.Logging(logger, nil))
	r.Use(middleware.Recovery(logger)) // Panic recovery
	r.Use(middleware.CORS())           // CORS headers

	r.Get("/api/v1/health", handlers.HealthCheck(db, startTime))

	r.Post("/api/v1/runs", handlers.CreateRun(db.Ledger, logger))
	r.Get("/api/v1/runs", handlers.ListRuns(db.Ledger, logger))
	r.Get("/api/v1/runs/{id}", handlers.GetRun(db.Ledger, logger))
	r.Get("/api/v1/runs/{id}/tiles", handlers.GetRunTiles(db.Ledger, logger))

	return r
}
