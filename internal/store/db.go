package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/geodemo/popsynth/internal/store/ledger"
)

// DB holds the single run-ledger SQLite connection and its querier.
type DB struct {
	conn *sql.DB

	// Ledger is the mockable persistence surface (internal/store/mock).
	Ledger ledger.Querier
}

// Config holds the ledger database path.
type Config struct {
	Path string
}

// Open opens the ledger database, applies any pending migrations, and
// initializes its querier.
func Open(cfg Config) (*DB, error) {
	if cfg.Path != ":memory:" && !strings.HasPrefix(cfg.Path, "file:") {
		if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create ledger dir %s: %w", dir, err)
			}
		}
	}
	conn, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping ledger db: %w", err)
	}

	m := NewMigrator(conn, Migrations(), slog.Default())
	if err := m.Up(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply ledger migrations: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(0)

	return &DB{conn: conn, Ledger: ledger.New(conn)}, nil
}

// Ping verifies the ledger database connection is alive.
func (db *DB) Ping() error {
	if db == nil || db.conn == nil {
		return fmt.Errorf("ledger db is not open")
	}
	return db.conn.Ping()
}

// Close releases the ledger database connection.
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("close ledger db: %w", err)
	}
	return nil
}

// WithTx executes fn within a ledger transaction, committing on success and
// rolling back on any error fn returns.
func (db *DB) WithTx(ctx context.Context, fn func(ledger.Querier) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	q := ledger.New(tx)
	if err := fn(q); err != nil {
		return err
	}

	return tx.Commit()
}
