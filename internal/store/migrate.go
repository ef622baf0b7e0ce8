package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations returns the ledger schema migrations compiled into the
// binary, rooted at the directory holding the .sql files. Opening the
// ledger never depends on the process working directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return sub
}

// Migrator applies the ledger's SQL migrations to a database. Files are
// named with a numeric prefix (001_create_run_ledger.sql); everything
// before an optional "-- Down" marker is the up migration, everything
// after it is the down migration, both as plain executable SQL.
type Migrator struct {
	db     *sql.DB
	fsys   fs.FS
	logger *slog.Logger
}

// NewMigrator creates a Migrator reading .sql files from fsys, normally
// Migrations(), or an os.DirFS over a checkout for ad-hoc work.
func NewMigrator(db *sql.DB, fsys fs.FS, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{db: db, fsys: fsys, logger: logger}
}

func (m *Migrator) ensureSchema() error {
	const stmt = `CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
);`
	_, err := m.db.Exec(stmt)
	return err
}

// listMigrationFiles maps version -> file name and returns versions
// ascending.
func (m *Migrator) listMigrationFiles() (map[int]string, []int, error) {
	files, err := fs.ReadDir(m.fsys, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("read migrations: %w", err)
	}
	entries := map[int]string{}
	var versions []int
	for _, fi := range files {
		name := fi.Name()
		if fi.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		i := 0
		for i < len(name) && name[i] >= '0' && name[i] <= '9' {
			i++
		}
		if i == 0 {
			continue
		}
		ver, err := strconv.Atoi(name[:i])
		if err != nil {
			continue
		}
		entries[ver] = name
		versions = append(versions, ver)
	}
	sort.Ints(versions)
	return entries, versions, nil
}

func (m *Migrator) appliedVersions() (map[int]bool, error) {
	rows, err := m.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()
	applied := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// splitSections returns the up and down SQL of a migration file.
func splitSections(content string) (up, down string) {
	lines := strings.Split(content, "\n")
	var upLines, downLines []string
	inDown := false
	for _, l := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(l)), "-- down") {
			inDown = true
			continue
		}
		if inDown {
			downLines = append(downLines, l)
		} else {
			upLines = append(upLines, l)
		}
	}
	return strings.TrimSpace(strings.Join(upLines, "\n")),
		strings.TrimSpace(strings.Join(downLines, "\n"))
}

func (m *Migrator) applyUp(version int, name string) error {
	content, err := fs.ReadFile(m.fsys, name)
	if err != nil {
		return err
	}
	upSQL, _ := splitSections(string(content))
	if upSQL == "" {
		m.logger.Info("migration has no up SQL; skipping", "version", version)
		return nil
	}
	m.logger.Info("applying ledger migration", "version", version, "file", name)

	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(upSQL); err != nil {
		return fmt.Errorf("execute migration %d: %w", version, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)`,
		version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

// Up applies all pending migrations in version order.
func (m *Migrator) Up() error {
	if err := m.ensureSchema(); err != nil {
		return err
	}
	filesMap, versions, err := m.listMigrationFiles()
	if err != nil {
		return err
	}
	applied, err := m.appliedVersions()
	if err != nil {
		return err
	}
	for _, ver := range versions {
		if applied[ver] {
			continue
		}
		if err := m.applyUp(ver, filesMap[ver]); err != nil {
			return err
		}
	}
	return nil
}

// ApplyVersion applies a single migration version if it exists and is
// not applied yet.
func (m *Migrator) ApplyVersion(version int) error {
	if err := m.ensureSchema(); err != nil {
		return err
	}
	filesMap, _, err := m.listMigrationFiles()
	if err != nil {
		return err
	}
	name, ok := filesMap[version]
	if !ok {
		return fmt.Errorf("migration file for version %d not found", version)
	}
	applied, err := m.appliedVersions()
	if err != nil {
		return err
	}
	if applied[version] {
		m.logger.Info("migration already applied; skipping", "version", version)
		return nil
	}
	return m.applyUp(version, name)
}

// Down rolls back the most recently applied migration using the SQL
// after its "-- Down" marker.
func (m *Migrator) Down() error {
	if err := m.ensureSchema(); err != nil {
		return err
	}
	last, err := m.Version()
	if err != nil {
		return err
	}
	if last == 0 {
		return errors.New("no migrations have been applied")
	}
	filesMap, _, err := m.listMigrationFiles()
	if err != nil {
		return err
	}
	name, ok := filesMap[last]
	if !ok {
		return fmt.Errorf("migration file for version %d not found", last)
	}
	content, err := fs.ReadFile(m.fsys, name)
	if err != nil {
		return err
	}
	_, downSQL := splitSections(string(content))
	if downSQL == "" {
		return fmt.Errorf("no down migration found for version %d", last)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(downSQL); err != nil {
		return fmt.Errorf("execute down migration %d: %w", last, err)
	}
	if _, err := tx.Exec(`DELETE FROM schema_migrations WHERE version = ?`, last); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	m.logger.Info("rolled back ledger migration", "version", last)
	return nil
}

// Version returns the highest applied migration version, or 0 if none.
func (m *Migrator) Version() (int, error) {
	if err := m.ensureSchema(); err != nil {
		return 0, err
	}
	var ver sql.NullInt64
	row := m.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`)
	if err := row.Scan(&ver); err != nil {
		return 0, err
	}
	if !ver.Valid {
		return 0, nil
	}
	return int(ver.Int64), nil
}
