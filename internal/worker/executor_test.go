package worker

import (
	"context"
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/geodemo/popsynth/internal/store/ledger"
)

func openLedger(t *testing.T) *ledger.Queries {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	schema := `
	CREATE TABLE runs (
	  id TEXT PRIMARY KEY, territory TEXT NOT NULL, seed INTEGER NOT NULL,
	  status TEXT NOT NULL DEFAULT 'pending', worker_id TEXT,
	  started_at TEXT NOT NULL, finished_at TEXT
	);
	CREATE TABLE tile_runs (
	  run_id TEXT NOT NULL, tile_id TEXT NOT NULL, status TEXT NOT NULL DEFAULT 'claimed',
	  households INTEGER NOT NULL DEFAULT 0, individuals INTEGER NOT NULL DEFAULT 0,
	  started_at TEXT NOT NULL, finished_at TEXT,
	  PRIMARY KEY (run_id, tile_id)
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return ledger.New(db)
}

func writeTilesCSV(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create tiles csv: %v", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	_ = w.Write([]string{
		"id", "ind", "men", "men_1ind", "men_5ind", "men_fmp",
		"men_prop", "men_coll", "men_mais", "ind_snv", "men_pauv",
		"ind_0_3", "ind_4_5", "ind_6_10", "ind_11_17",
		"ind_18_24", "ind_25_39", "ind_40_54", "ind_55_64", "ind_65_79", "ind_80_105", "ind_inc",
	})
	_ = w.Write([]string{
		"CRS3035RES200mN2000E1000", "5", "2", "0", "0", "0",
		"0", "0", "0", "80000", "0",
		"3", "0", "0", "0",
		"0", "2", "0", "0", "0", "0", "0",
	})
	_ = w.Write([]string{
		"CRS3035RES200mN2000E1200", "2", "1", "0", "0", "0",
		"0", "0", "0", "30000", "0",
		"0", "0", "0", "0",
		"0", "2", "0", "0", "0", "0", "0",
	})
}

func writeAddressesCSV(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create addresses csv: %v", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	_ = w.Write([]string{"x", "y"})
	_ = w.Write([]string{"1050", "2050"})
	_ = w.Write([]string{"1150", "2150"})
}

func countCSVRows(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return len(rows)
}

func TestPipelineExecutorRunsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	tilesPath := filepath.Join(dir, "tiles.csv")
	addressesPath := filepath.Join(dir, "addresses.csv")
	writeTilesCSV(t, tilesPath)
	writeAddressesCSV(t, addressesPath)

	q := openLedger(t)
	ctx := context.Background()
	if err := q.CreateRun(ctx, ledger.CreateRunParams{ID: "run-1", Territory: "france", Seed: 42, StartedAt: "t0"}); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	run, err := q.ClaimPendingRun(ctx, ledger.ClaimPendingRunParams{WorkerID: "w-1", StartedAt: "t1"})
	if err != nil {
		t.Fatalf("ClaimPendingRun: %v", err)
	}

	exec := &PipelineExecutor{
		Queries:       q,
		TilesPath:     tilesPath,
		AddressesPath: addressesPath,
		OutputDir:     dir,
		BatchSize:     100,
		Workers:       2,
		Logger:        testLogger(),
	}
	if err := exec.ExecuteRun(ctx, run); err != nil {
		t.Fatalf("ExecuteRun: %v", err)
	}

	// Header plus one row per household / individual. The fixture's integer
	// counts give 3 households and 7 individuals; the checks below only
	// require every tile to contribute.
	hRows := countCSVRows(t, filepath.Join(dir, "run-1-households.csv"))
	iRows := countCSVRows(t, filepath.Join(dir, "run-1-individuals.csv"))
	if hRows < 3 {
		t.Fatalf("expected at least 2 households + header, got %d rows", hRows)
	}
	if iRows <= hRows {
		t.Fatalf("expected more individuals (%d) than households (%d)", iRows-1, hRows-1)
	}

	tiles, err := q.ListTileRuns(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListTileRuns: %v", err)
	}
	if len(tiles) != 2 {
		t.Fatalf("expected 2 tile rows, got %d", len(tiles))
	}
	for _, tr := range tiles {
		if tr.Status != ledger.StatusDone {
			t.Fatalf("tile %s not marked done: %+v", tr.TileID, tr)
		}
		if tr.Households < 1 || tr.Individuals < tr.Households {
			t.Fatalf("implausible tile counts: %+v", tr)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "run-1-report.xlsx")); err != nil {
		t.Fatalf("expected report workbook: %v", err)
	}
}

func TestPipelineExecutorSkipsDoneTilesOnResume(t *testing.T) {
	dir := t.TempDir()
	tilesPath := filepath.Join(dir, "tiles.csv")
	addressesPath := filepath.Join(dir, "addresses.csv")
	writeTilesCSV(t, tilesPath)
	writeAddressesCSV(t, addressesPath)

	q := openLedger(t)
	ctx := context.Background()
	_ = q.CreateRun(ctx, ledger.CreateRunParams{ID: "run-2", Territory: "france", Seed: 7, StartedAt: "t0"})
	run, err := q.ClaimPendingRun(ctx, ledger.ClaimPendingRunParams{WorkerID: "w-1", StartedAt: "t1"})
	if err != nil {
		t.Fatalf("ClaimPendingRun: %v", err)
	}

	// Simulate a prior crashed attempt that finished the first tile.
	_ = q.ClaimTile(ctx, ledger.ClaimTileParams{RunID: "run-2", TileID: "CRS3035RES200mN2000E1000", StartedAt: "t1"})
	_ = q.CompleteTile(ctx, ledger.CompleteTileParams{RunID: "run-2", TileID: "CRS3035RES200mN2000E1000", Households: 2, Individuals: 5, FinishedAt: "t2"})

	exec := &PipelineExecutor{
		Queries:       q,
		TilesPath:     tilesPath,
		AddressesPath: addressesPath,
		OutputDir:     dir,
		BatchSize:     100,
		Workers:       1,
		Logger:        testLogger(),
	}
	if err := exec.ExecuteRun(ctx, run); err != nil {
		t.Fatalf("ExecuteRun: %v", err)
	}

	tiles, err := q.ListTileRuns(ctx, "run-2")
	if err != nil {
		t.Fatalf("ListTileRuns: %v", err)
	}
	if len(tiles) != 2 {
		t.Fatalf("expected 2 tile rows, got %d", len(tiles))
	}
	// The completed tile's counts must survive untouched.
	for _, tr := range tiles {
		if tr.TileID == "CRS3035RES200mN2000E1000" && (tr.Households != 2 || tr.Individuals != 5) {
			t.Fatalf("resume overwrote a done tile's counts: %+v", tr)
		}
	}
}

func TestPipelineExecutorRejectsNonCSVOutputFormat(t *testing.T) {
	q := openLedger(t)
	exec := &PipelineExecutor{Queries: q, OutputFormat: "geopackage", Logger: testLogger()}
	err := exec.ExecuteRun(context.Background(), ledger.Run{ID: "run-x", Territory: "france", Seed: 1})
	if err == nil {
		t.Fatal("expected error for unimplemented output format")
	}
}

func TestPipelineExecutorRejectsUnknownTerritory(t *testing.T) {
	q := openLedger(t)
	exec := &PipelineExecutor{Queries: q, Logger: testLogger()}
	err := exec.ExecuteRun(context.Background(), ledger.Run{ID: "run-x", Territory: "atlantis", Seed: 1})
	if err == nil {
		t.Fatal("expected error for unknown territory")
	}
}
