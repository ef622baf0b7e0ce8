package worker

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/geodemo/popsynth/internal/ioadapters"
	"github.com/geodemo/popsynth/internal/models"
	"github.com/geodemo/popsynth/internal/pipeline"
	"github.com/geodemo/popsynth/internal/report"
	"github.com/geodemo/popsynth/internal/store/ledger"
	"github.com/geodemo/popsynth/pkg/geo"
)

// PipelineExecutor executes one run end-to-end: it resolves the
// territory's CRS pairing, skips tiles the ledger already marks done,
// drives the synthesis pipeline against the configured CSV inputs, and
// writes the per-run report workbook next to the output tables.
type PipelineExecutor struct {
	Queries       ledger.Querier
	TilesPath     string
	AddressesPath string
	OutputDir     string
	OutputFormat  string // "csv" or empty; other formats need an external sink
	BatchSize     int
	Workers       int
	Logger        *slog.Logger
}

// ExecuteRun implements RunExecutor.
func (e *PipelineExecutor) ExecuteRun(ctx context.Context, run ledger.Run) error {
	if e.OutputFormat != "" && e.OutputFormat != "csv" {
		return models.NewIOError(fmt.Sprintf("output format %q is not implemented by the bundled CSV sink; supply an external sink", e.OutputFormat))
	}
	territory, err := geo.Lookup(run.Territory)
	if err != nil {
		return fmt.Errorf("run %s: %w", run.ID, err)
	}

	doneTiles, err := e.Queries.ListDoneTileIDs(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("run %s: load done tiles: %w", run.ID, err)
	}
	skip := make(map[string]bool, len(doneTiles))
	for _, id := range doneTiles {
		skip[id] = true
	}

	sink := &ioadapters.CSVSink{
		HouseholdsPath:  filepath.Join(e.OutputDir, run.ID+"-households.csv"),
		IndividualsPath: filepath.Join(e.OutputDir, run.ID+"-individuals.csv"),
		Append:          len(skip) > 0,
	}
	if err := sink.Open(); err != nil {
		return fmt.Errorf("run %s: %w", run.ID, err)
	}
	defer sink.Close()

	driver := pipeline.New(pipeline.Config{
		TileEPSG:    territory.TileEPSG,
		AddressEPSG: territory.AddressEPSG,
		Seed:        run.Seed,
		BatchSize:   e.BatchSize,
		Workers:     e.Workers,
		RunID:       run.ID,
		SkipTiles:   skip,
	}, ioadapters.CSVTileSource{Path: e.TilesPath}, ioadapters.CSVAddressSource{Path: e.AddressesPath}, sink, e.Logger)
	driver.Observe(&ledgerObserver{ctx: ctx, queries: e.Queries, runID: run.ID, logger: e.Logger})

	summary, err := driver.Run(ctx)
	if err != nil {
		return err
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("run %s: %w", run.ID, err)
	}

	e.Logger.Info("writing run report",
		"run_id", run.ID,
		"households", summary.HouseholdCount,
		"individuals", summary.IndividualCount,
	)
	return e.writeReport(ctx, run)
}

func (e *PipelineExecutor) writeReport(ctx context.Context, run ledger.Run) error {
	current, err := e.Queries.GetRun(ctx, run.ID)
	if err != nil {
		current = run
	}
	tiles, err := e.Queries.ListTileRuns(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("run %s: load tile progress for report: %w", run.ID, err)
	}
	path := filepath.Join(e.OutputDir, run.ID+"-report.xlsx")
	if err := report.Write(path, current, tiles); err != nil {
		return fmt.Errorf("run %s: %w", run.ID, err)
	}
	return nil
}

// ledgerObserver records per-tile progress into the ledger as the
// pipeline's workers report it. Failures are logged rather than
// propagated: progress rows are advisory, the output tables are the
// source of truth.
type ledgerObserver struct {
	ctx     context.Context
	queries ledger.Querier
	runID   string
	logger  *slog.Logger
}

func (o *ledgerObserver) TileStarted(tileID string) {
	err := o.queries.ClaimTile(o.ctx, ledger.ClaimTileParams{
		RunID:     o.runID,
		TileID:    tileID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		o.logger.Error("record tile start failed", "run_id", o.runID, "tile", tileID, "error", err)
	}
}

func (o *ledgerObserver) TileDone(tileID string, households, individuals int) {
	err := o.queries.CompleteTile(o.ctx, ledger.CompleteTileParams{
		RunID:       o.runID,
		TileID:      tileID,
		Households:  int64(households),
		Individuals: int64(individuals),
		FinishedAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		o.logger.Error("record tile completion failed", "run_id", o.runID, "tile", tileID, "error", err)
	}
}
