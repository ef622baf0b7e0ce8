// Command generate performs a single generation run from the command
// line: it enqueues a run in the ledger, drives the synthesis pipeline
// over the configured tile and address inputs, and writes the output
// tables and the per-run report workbook. With -resume it picks an
// existing run back up, skipping tiles the ledger already marks done.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/geodemo/popsynth/internal/config"
	"github.com/geodemo/popsynth/internal/logger"
	"github.com/geodemo/popsynth/internal/store"
	"github.com/geodemo/popsynth/internal/store/ledger"
	"github.com/geodemo/popsynth/internal/worker"
)

func main() {
	envFile := flag.String("env-file", ".env", "Path to .env configuration file")
	resumeID := flag.String("resume", "", "Run id to resume instead of starting a new run")
	flag.Parse()

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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	run, err := resolveRun(ctx, db.Ledger, cfg, *resumeID)
	if err != nil {
		logger.Error("Failed to resolve run", "error", err)
		os.Exit(1)
	}

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

	logger.Info("starting run", "run_id", run.ID, "territory", run.Territory, "seed", run.Seed, "resume", *resumeID != "")

	now := func() string { return time.Now().UTC().Format(time.RFC3339) }
	if err := executor.ExecuteRun(ctx, run); err != nil {
		logger.Error("run failed", "run_id", run.ID, "error", err)
		if lerr := db.Ledger.FailRun(ctx, run.ID, now()); lerr != nil {
			logger.Error("mark run failed errored", "run_id", run.ID, "error", lerr)
		}
		os.Exit(1)
	}
	if err := db.Ledger.FinishRun(ctx, run.ID, now()); err != nil {
		logger.Error("mark run done errored", "run_id", run.ID, "error", err)
		os.Exit(1)
	}

	logger.Info("run complete", "run_id", run.ID)
	fmt.Println(run.ID)
}

// resolveRun either loads the run being resumed or records a fresh one.
func resolveRun(ctx context.Context, q ledger.Querier, cfg *config.Config, resumeID string) (ledger.Run, error) {
	if resumeID != "" {
		run, err := q.GetRun(ctx, resumeID)
		if err == sql.ErrNoRows {
			return ledger.Run{}, fmt.Errorf("no run with id %s to resume", resumeID)
		}
		if err != nil {
			return ledger.Run{}, err
		}
		if run.Status == ledger.RunDone {
			return ledger.Run{}, fmt.Errorf("run %s is already done", resumeID)
		}
		return run, nil
	}

	run := ledger.Run{
		ID:        uuid.New().String(),
		Territory: cfg.Territory,
		Seed:      cfg.Seed,
		Status:    ledger.RunPending,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	err := q.CreateRun(ctx, ledger.CreateRunParams{
		ID:        run.ID,
		Territory: run.Territory,
		Seed:      run.Seed,
		StartedAt: run.StartedAt,
	})
	if err != nil {
		return ledger.Run{}, err
	}
	return run, nil
}
