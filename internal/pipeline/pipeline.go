// Package pipeline implements the driver that ties the core algorithms
// together: it reads raw tiles in input order, refines each one, pulls
// the matching address subsequence, applies synthesizer → binder →
// expander, and yields households and individuals in batches that never
// split a household's individuals across a batch boundary.
//
// Each tile is an independent unit of work, processed by a worker owning
// its own rng.Source derived from (masterSeed, tile ordinal); output
// ordering follows input tile order regardless of which worker finishes
// first.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/geodemo/popsynth/pkg/address"
	"github.com/geodemo/popsynth/pkg/household"
	"github.com/geodemo/popsynth/pkg/individual"
	"github.com/geodemo/popsynth/pkg/rng"
	"github.com/geodemo/popsynth/pkg/tilerefine"
)

// poolOrdinal is the reserved rng.ForTile ordinal used to seed the address
// pool's per-tile shuffles, kept out of the range of real tile ordinals
// (which start at 0) so it never collides with a tile's own stream.
const poolOrdinal = -1

// TileSource supplies raw tiles in the order the pipeline must preserve
// on output. Downloading the source datasets, decompressing them and
// reprojecting coordinates are the caller's concern; an implementation of
// TileSource is expected to have already resolved those.
type TileSource interface {
	Tiles(ctx context.Context) ([]tilerefine.RawTile, error)
}

// AddressSource supplies every address point of the territory, already in
// the tile grid's CRS. The pipeline groups them per tile itself via
// address.NewPool.
type AddressSource interface {
	Addresses(ctx context.Context) ([]address.Point, error)
}

// Sink receives household and individual batches. A batch never splits a
// household's individuals; writing is expected to be a durable boundary.
type Sink interface {
	WriteHouseholds(ctx context.Context, batch []*household.Household) error
	WriteIndividuals(ctx context.Context, batch []individual.Individual) error
}

// Observer receives per-tile progress callbacks. Implementations must be
// safe for concurrent use: tiles are processed in parallel.
type Observer interface {
	TileStarted(tileID string)
	TileDone(tileID string, households, individuals int)
}

// Config parameterises one run.
type Config struct {
	TileEPSG    int
	AddressEPSG int
	Seed        int64
	BatchSize   int
	Workers     int

	// RunID labels log lines and the Summary; one is generated when empty.
	RunID string

	// SkipTiles lists raw tile identifiers to pass over without
	// synthesizing or emitting anything, used to resume an interrupted
	// run. Skipped tiles keep their ordinal, so the remaining tiles
	// produce the same output they would have in the original run.
	SkipTiles map[string]bool
}

// Driver is the pipeline driver.
type Driver struct {
	cfg     Config
	tiles   TileSource
	address AddressSource
	sink    Sink
	obs     Observer
	logger  *slog.Logger
}

// New builds a Driver. logger may be nil, in which case slog.Default() is
// used.
func New(cfg Config, tiles TileSource, addresses AddressSource, sink Sink, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return &Driver{cfg: cfg, tiles: tiles, address: addresses, sink: sink, logger: logger}
}

// Observe registers an Observer for per-tile progress. Must be called
// before Run.
func (d *Driver) Observe(o Observer) { d.obs = o }

// Summary reports the outcome of one run.
type Summary struct {
	RunID            string
	TileCount        int
	SkippedTileCount int
	HouseholdCount   int
	IndividualCount  int
}

// tileResult is the per-tile output of stage 1 (refine+synthesize+bind+
// expand), kept in input order so stage 2 (batching) can merge correctly.
type tileResult struct {
	households []*household.Household
	individual []individual.Individual
}

// Run executes one end-to-end pass over every tile supplied by d.tiles.
// Each tile is processed independently and in parallel (bounded by
// cfg.Workers); results are merged back into input order before being
// handed to the sink in batches.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	runID := d.cfg.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	logger := d.logger.With("run_id", runID)

	rawTiles, err := d.tiles.Tiles(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load tiles: %w", err)
	}
	points, err := d.address.Addresses(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load addresses: %w", err)
	}

	poolSeedSource := rng.ForTile(d.cfg.Seed, poolOrdinal)
	pool := address.NewPool(d.cfg.TileEPSG, points, poolSeedSource)

	results := make([]tileResult, len(rawTiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)

	skipped := 0
	for i, raw := range rawTiles {
		if d.cfg.SkipTiles[raw.ID] {
			skipped++
			logger.Debug("tile skipped", "tile", raw.ID)
			continue
		}
		i, raw := i, raw
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if d.obs != nil {
				d.obs.TileStarted(raw.ID)
			}
			res, err := processTile(i, raw, d.cfg, pool, logger)
			if err != nil {
				return err
			}
			results[i] = res
			if d.obs != nil {
				d.obs.TileDone(raw.ID, len(res.households), len(res.individual))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{RunID: runID, TileCount: len(rawTiles), SkippedTileCount: skipped}
	if err := d.emit(ctx, results, &summary); err != nil {
		return Summary{}, err
	}

	logger.Info("run complete",
		"tiles", summary.TileCount,
		"skipped", summary.SkippedTileCount,
		"households", summary.HouseholdCount,
		"individuals", summary.IndividualCount,
	)
	return summary, nil
}

// processTile runs refine → synthesize → bind → expand for one tile,
// using a worker-private RNG derived from (seed, ordinal) so the result
// is identical regardless of scheduling order.
func processTile(ordinal int, raw tilerefine.RawTile, cfg Config, pool *address.Pool, logger *slog.Logger) (tileResult, error) {
	s := rng.ForTile(cfg.Seed, ordinal)
	refined, err := tilerefine.Refine(raw, s)
	if err != nil {
		return tileResult{}, fmt.Errorf("refine tile %s: %w", raw.ID, err)
	}

	households, err := household.Synthesize(refined, s)
	if err != nil {
		return tileResult{}, fmt.Errorf("synthesize tile %s: %w", raw.ID, err)
	}

	addrs := pool.For(refined.ID)
	bound := address.Bind(households, addrs, refined.Bounds, s)

	var individuals []individual.Individual
	for _, h := range bound {
		individuals = append(individuals, individual.Expand(h, s)...)
	}

	if raw.Ind < 1 || raw.Men > raw.Ind {
		logger.Warn("tile clamped during refinement", "tile", raw.ID)
	}

	return tileResult{households: bound, individual: individuals}, nil
}

// emit merges per-tile results back into input order and flushes them to
// the sink in batches. A batch boundary must fall between households,
// never inside one.
func (d *Driver) emit(ctx context.Context, results []tileResult, summary *Summary) error {
	var hBatch []*household.Household
	var iBatch []individual.Individual

	flush := func() error {
		if len(hBatch) > 0 {
			if err := d.sink.WriteHouseholds(ctx, hBatch); err != nil {
				return fmt.Errorf("write households: %w", err)
			}
			hBatch = nil
		}
		if len(iBatch) > 0 {
			if err := d.sink.WriteIndividuals(ctx, iBatch); err != nil {
				return fmt.Errorf("write individuals: %w", err)
			}
			iBatch = nil
		}
		return nil
	}

	for _, res := range results {
		for _, h := range res.households {
			hBatch = append(hBatch, h)
			summary.HouseholdCount++
			if len(hBatch) >= d.cfg.BatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}

		// res.individual was built in household order (processTile), so a
		// household's individuals form one contiguous run. Flush before
		// starting a new household's run if the current batch is already
		// at capacity; never flush mid-household.
		start := 0
		for _, h := range res.households {
			end := start + h.Size
			if end > len(res.individual) {
				end = len(res.individual)
			}
			if len(iBatch) >= d.cfg.BatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
			iBatch = append(iBatch, res.individual[start:end]...)
			summary.IndividualCount += end - start
			start = end
		}
	}
	return flush()
}
