package store

import (
	"context"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/geodemo/popsynth/internal/store/ledger"
)

// TestOpen_Success ensures Open initializes the ledger DB and applies migrations.
func TestOpen_Success(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer db.Close()

	if db.conn == nil || db.Ledger == nil {
		t.Fatalf("expected conn and Ledger to be non-nil")
	}
}

// TestOpenClose verifies Open on a file-backed DB and that Close releases resources.
func TestOpenClose(t *testing.T) {
	tmp := t.TempDir()
	db, err := Open(Config{Path: filepath.Join(tmp, "ledger.db")})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestOpen_PingFailure(t *testing.T) {
	_, err := Open(Config{Path: "file:/this_dir_should_not_exist_12345/ledger.db?mode=ro"})
	if err == nil {
		t.Fatalf("expected error opening ledger db under a nonexistent read-only path")
	}
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	err = db.WithTx(ctx, func(q ledger.Querier) error {
		return q.CreateRun(ctx, ledger.CreateRunParams{ID: "run-1", Territory: "france", Seed: 1, StartedAt: "t0"})
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	r, err := db.Ledger.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun after commit: %v", err)
	}
	if r.Territory != "france" {
		t.Fatalf("unexpected run: %+v", r)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	wantErr := errFake{"boom"}
	err = db.WithTx(ctx, func(q ledger.Querier) error {
		if err := q.CreateRun(ctx, ledger.CreateRunParams{ID: "run-2", Territory: "france", Seed: 1, StartedAt: "t0"}); err != nil {
			return err
		}
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected WithTx to surface fn's error, got %v", err)
	}

	if _, err := db.Ledger.GetRun(ctx, "run-2"); err == nil {
		t.Fatalf("expected run-2 to be rolled back")
	}
}

type errFake struct{ msg string }

func (e errFake) Error() string { return e.msg }
