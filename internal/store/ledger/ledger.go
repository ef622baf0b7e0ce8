// Package ledger persists run and per-tile progress for the population
// generator: one row per run, one row per (run, tile) recording whether
// that tile has completed refinement, household synthesis, address
// binding and individual expansion, and with what counts. A crashed run
// can resume by skipping tiles already marked done, and the run worker
// claims pending runs through the same querier.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, letting Queries run either
// standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Run is one invocation of the pipeline driver against a territory.
type Run struct {
	ID         string
	Territory  string
	Seed       int64
	Status     string
	WorkerID   sql.NullString
	StartedAt  string
	FinishedAt sql.NullString
}

// TileRun is the ledger row for a single tile within a run.
type TileRun struct {
	RunID       string
	TileID      string
	Status      string // "claimed" or "done"
	Households  int64
	Individuals int64
	StartedAt   string
	FinishedAt  sql.NullString
}

// Run statuses.
const (
	RunPending = "pending"
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"
)

// Tile statuses.
const (
	StatusClaimed = "claimed"
	StatusDone    = "done"
)

// CreateRunParams starts a new run row in the pending state.
type CreateRunParams struct {
	ID        string
	Territory string
	Seed      int64
	StartedAt string
}

// ClaimPendingRunParams marks the oldest pending run as running under a
// worker.
type ClaimPendingRunParams struct {
	WorkerID  string
	StartedAt string
}

// ClaimTileParams records that a worker has started a tile.
type ClaimTileParams struct {
	RunID     string
	TileID    string
	StartedAt string
}

// CompleteTileParams records a tile's finished counts.
type CompleteTileParams struct {
	RunID       string
	TileID      string
	Households  int64
	Individuals int64
	FinishedAt  string
}

// Querier is the ledger's mockable persistence surface.
type Querier interface {
	CreateRun(ctx context.Context, arg CreateRunParams) error
	ClaimPendingRun(ctx context.Context, arg ClaimPendingRunParams) (Run, error)
	FinishRun(ctx context.Context, runID, finishedAt string) error
	FailRun(ctx context.Context, runID, finishedAt string) error
	GetRun(ctx context.Context, runID string) (Run, error)
	ListRuns(ctx context.Context) ([]Run, error)

	ClaimTile(ctx context.Context, arg ClaimTileParams) error
	CompleteTile(ctx context.Context, arg CompleteTileParams) error
	GetTileRun(ctx context.Context, runID, tileID string) (TileRun, error)
	ListTileRuns(ctx context.Context, runID string) ([]TileRun, error)
	ListDoneTileIDs(ctx context.Context, runID string) ([]string, error)
}

// Queries implements Querier over a DBTX.
type Queries struct {
	db DBTX
}

// New returns a Queries bound to db, which may be a *sql.DB or a *sql.Tx.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO runs (id, territory, seed, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		arg.ID, arg.Territory, arg.Seed, RunPending, arg.StartedAt)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// ClaimPendingRun atomically moves the oldest pending run to running and
// stamps the claiming worker. Returns sql.ErrNoRows when nothing is
// pending.
func (q *Queries) ClaimPendingRun(ctx context.Context, arg ClaimPendingRunParams) (Run, error) {
	var r Run
	row := q.db.QueryRowContext(ctx,
		`UPDATE runs SET status = ?, worker_id = ?, started_at = ?
		 WHERE id = (SELECT id FROM runs WHERE status = ? ORDER BY started_at LIMIT 1)
		 RETURNING id, territory, seed, status, worker_id, started_at, finished_at`,
		RunRunning, arg.WorkerID, arg.StartedAt, RunPending)
	if err := row.Scan(&r.ID, &r.Territory, &r.Seed, &r.Status, &r.WorkerID, &r.StartedAt, &r.FinishedAt); err != nil {
		if err == sql.ErrNoRows {
			return Run{}, sql.ErrNoRows
		}
		return Run{}, fmt.Errorf("claim pending run: %w", err)
	}
	return r, nil
}

func (q *Queries) FinishRun(ctx context.Context, runID, finishedAt string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`, RunDone, finishedAt, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

func (q *Queries) FailRun(ctx context.Context, runID, finishedAt string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`, RunFailed, finishedAt, runID)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return nil
}

func (q *Queries) GetRun(ctx context.Context, runID string) (Run, error) {
	var r Run
	row := q.db.QueryRowContext(ctx,
		`SELECT id, territory, seed, status, worker_id, started_at, finished_at FROM runs WHERE id = ?`, runID)
	if err := row.Scan(&r.ID, &r.Territory, &r.Seed, &r.Status, &r.WorkerID, &r.StartedAt, &r.FinishedAt); err != nil {
		if err == sql.ErrNoRows {
			return Run{}, sql.ErrNoRows
		}
		return Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return r, nil
}

func (q *Queries) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, territory, seed, status, worker_id, started_at, finished_at FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Territory, &r.Seed, &r.Status, &r.WorkerID, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) ClaimTile(ctx context.Context, arg ClaimTileParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO tile_runs (run_id, tile_id, status, started_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (run_id, tile_id) DO UPDATE SET started_at = excluded.started_at`,
		arg.RunID, arg.TileID, StatusClaimed, arg.StartedAt)
	if err != nil {
		return fmt.Errorf("claim tile %s: %w", arg.TileID, err)
	}
	return nil
}

func (q *Queries) CompleteTile(ctx context.Context, arg CompleteTileParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE tile_runs SET status = ?, households = ?, individuals = ?, finished_at = ?
		 WHERE run_id = ? AND tile_id = ?`,
		StatusDone, arg.Households, arg.Individuals, arg.FinishedAt, arg.RunID, arg.TileID)
	if err != nil {
		return fmt.Errorf("complete tile %s: %w", arg.TileID, err)
	}
	return nil
}

func (q *Queries) GetTileRun(ctx context.Context, runID, tileID string) (TileRun, error) {
	var t TileRun
	row := q.db.QueryRowContext(ctx,
		`SELECT run_id, tile_id, status, households, individuals, started_at, finished_at
		 FROM tile_runs WHERE run_id = ? AND tile_id = ?`, runID, tileID)
	if err := row.Scan(&t.RunID, &t.TileID, &t.Status, &t.Households, &t.Individuals, &t.StartedAt, &t.FinishedAt); err != nil {
		return TileRun{}, fmt.Errorf("get tile run %s/%s: %w", runID, tileID, err)
	}
	return t, nil
}

// ListTileRuns returns every tile row of a run in tile-identifier order,
// for progress reporting.
func (q *Queries) ListTileRuns(ctx context.Context, runID string) ([]TileRun, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT run_id, tile_id, status, households, individuals, started_at, finished_at
		 FROM tile_runs WHERE run_id = ? ORDER BY tile_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list tile runs: %w", err)
	}
	defer rows.Close()

	var out []TileRun
	for rows.Next() {
		var t TileRun
		if err := rows.Scan(&t.RunID, &t.TileID, &t.Status, &t.Households, &t.Individuals, &t.StartedAt, &t.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan tile run: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListDoneTileIDs supports resuming a run: tiles already marked done are
// skipped on the next pass.
func (q *Queries) ListDoneTileIDs(ctx context.Context, runID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT tile_id FROM tile_runs WHERE run_id = ? AND status = ?`, runID, StatusDone)
	if err != nil {
		return nil, fmt.Errorf("list done tiles: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tile id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
