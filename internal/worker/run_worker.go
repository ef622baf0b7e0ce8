// Package worker coordinates generation runs over the ledger: a RunWorker
// polls for pending runs and hands each one to a RunExecutor, and the
// bundled PipelineExecutor drives the synthesis pipeline end-to-end while
// recording per-tile progress back into the ledger.
package worker

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/geodemo/popsynth/internal/store/ledger"
)

// RunExecutor performs one claimed generation run.
type RunExecutor interface {
	ExecuteRun(ctx context.Context, run ledger.Run) error
}

// RunWorker polls the ledger for pending runs and executes them.
type RunWorker struct {
	queries       ledger.Querier
	executor      RunExecutor
	workerID      string
	pollInterval  time.Duration
	maxConcurrent int
	logger        *slog.Logger
	shutdown      chan struct{}
}

func NewRunWorker(
	queries ledger.Querier,
	executor RunExecutor,
	workerID string,
	pollInterval time.Duration,
	maxConcurrent int,
	logger *slog.Logger,
) *RunWorker {
	return &RunWorker{
		queries:       queries,
		executor:      executor,
		workerID:      workerID,
		pollInterval:  pollInterval,
		maxConcurrent: maxConcurrent,
		logger:        logger,
		shutdown:      make(chan struct{}),
	}
}

func (w *RunWorker) Start(ctx context.Context) error {
	w.logger.Info("worker starting", "worker_id", w.workerID)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Semaphore for concurrency control
	sem := make(chan struct{}, w.maxConcurrent)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down", "worker_id", w.workerID)
			return ctx.Err()
		case <-w.shutdown:
			w.logger.Info("worker stopped", "worker_id", w.workerID)
			return nil
		case <-ticker.C:
			run, err := w.queries.ClaimPendingRun(ctx, ledger.ClaimPendingRunParams{
				WorkerID:  w.workerID,
				StartedAt: time.Now().UTC().Format(time.RFC3339),
			})
			if err != nil {
				if err != sql.ErrNoRows {
					w.logger.Error("claim run failed", "error", err, "worker_id", w.workerID)
				}
				continue
			}

			sem <- struct{}{}
			go func(run ledger.Run) {
				defer func() { <-sem }()

				w.logger.Info("processing run", "run_id", run.ID, "territory", run.Territory, "worker_id", w.workerID)

				finishedAt := func() string { return time.Now().UTC().Format(time.RFC3339) }
				if err := w.executor.ExecuteRun(ctx, run); err != nil {
					w.logger.Error("run execution failed", "run_id", run.ID, "error", err, "worker_id", w.workerID)
					if err := w.queries.FailRun(ctx, run.ID, finishedAt()); err != nil {
						w.logger.Error("mark run failed errored", "run_id", run.ID, "error", err)
					}
				} else {
					w.logger.Info("run completed", "run_id", run.ID, "worker_id", w.workerID)
					if err := w.queries.FinishRun(ctx, run.ID, finishedAt()); err != nil {
						w.logger.Error("mark run done errored", "run_id", run.ID, "error", err)
					}
				}
			}(run)
		}
	}
}

func (w *RunWorker) Stop() {
	close(w.shutdown)
}
