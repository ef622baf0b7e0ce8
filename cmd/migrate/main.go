// Command migrate applies the run-ledger schema migrations. store.Open
// runs pending migrations automatically; this command exists for
// operating on the ledger database directly (inspecting the version,
// rolling back, applying a single version). Migrations are compiled into
// the binary; -migrations overrides them with a directory on disk.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/geodemo/popsynth/internal/store"
)

func main() {
	migrationsDir := flag.String("migrations", "", "read migrations from this directory instead of the embedded set")
	dbPath := flag.String("db", "data/popsynth.db", "path to the ledger sqlite database")
	onlyFlag := flag.String("only", "", "comma-separated migration versions to apply (only valid with 'up')")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: migrate [up|down|version] [flags]\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	action := strings.ToLower(flag.Arg(0))
	logger := slog.Default()

	if parent := filepath.Dir(*dbPath); parent != "." && parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			logger.Error("create parent dir failed", "dir", parent, "err", err)
			os.Exit(1)
		}
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		logger.Error("open db", "db", *dbPath, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	var fsys fs.FS = store.Migrations()
	if *migrationsDir != "" {
		fsys = os.DirFS(*migrationsDir)
	}

	m := store.NewMigrator(db, fsys, logger)
	switch action {
	case "up":
		if *onlyFlag != "" {
			for _, p := range strings.Split(*onlyFlag, ",") {
				p = strings.TrimSpace(p)
				if p == "" {
					continue
				}
				ver, err := strconv.Atoi(p)
				if err != nil {
					logger.Error("invalid version in -only", "val", p, "err", err)
					os.Exit(1)
				}
				if err := m.ApplyVersion(ver); err != nil {
					logger.Error("apply version failed", "db", *dbPath, "ver", ver, "err", err)
					os.Exit(1)
				}
			}
			return
		}
		logger.Info("migrating up", "db", *dbPath)
		if err := m.Up(); err != nil {
			logger.Error("migration up failed", "db", *dbPath, "err", err)
			os.Exit(1)
		}
	case "down":
		logger.Info("migrating down", "db", *dbPath)
		if err := m.Down(); err != nil {
			logger.Error("migration down failed", "db", *dbPath, "err", err)
			os.Exit(1)
		}
	case "version":
		v, err := m.Version()
		if err != nil {
			logger.Error("migration version failed", "db", *dbPath, "err", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d\n", *dbPath, v)
	default:
		fmt.Fprintf(os.Stderr, "unknown action: %s\n", action)
		os.Exit(2)
	}
}
