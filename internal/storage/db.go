package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the SQLite theming history.
type DB struct {
	db *sql.DB
}

// Run is one extraction plus the applications it was applied to.
type Run struct {
	ID          string      `json:"id"`
	CreatedAt   int64       `json:"created_at"`
	Wallpaper   string      `json:"wallpaper"`
	Method      string      `json:"method"`
	Quality     float64     `json:"quality"`
	Accessible  bool        `json:"accessible"`
	PaletteJSON string      `json:"palette_json"`
	Results     []AppResult `json:"results"`
}

// AppResult is the outcome for one application within a run.
type AppResult struct {
	App           string `json:"app"`
	Success       bool   `json:"success"`
	OutputPath    string `json:"output_path"`
	BackupCreated bool   `json:"backup_created"`
	Reloaded      bool   `json:"reloaded"`
	Error         string `json:"error,omitempty"`
}

// Open opens or creates the SQLite database at the given path and applies
// pending migrations.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create migrate driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migrate source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// InsertRun stores r and its results in one transaction. An empty ID is
// replaced with a fresh UUID, which is returned.
func (d *DB) InsertRun(r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	tx, err := d.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO runs (id, created_at, wallpaper, method, quality, accessible, palette_json) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.CreatedAt, r.Wallpaper, r.Method, r.Quality, boolInt(r.Accessible), r.PaletteJSON,
	); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("insert run: %w", err)
	}

	if len(r.Results) > 0 {
		stmt, err := tx.Prepare("INSERT INTO app_results (run_id, app, success, output_path, backup_created, reloaded, error) VALUES (?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			tx.Rollback()
			return "", err
		}
		defer stmt.Close()
		for _, res := range r.Results {
			if _, err := stmt.Exec(r.ID, res.App, boolInt(res.Success), res.OutputPath, boolInt(res.BackupCreated), boolInt(res.Reloaded), res.Error); err != nil {
				tx.Rollback()
				return "", fmt.Errorf("insert app result: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return r.ID, nil
}

const runColumns = "id, created_at, wallpaper, method, quality, accessible, palette_json"

func scanRun(scan func(...any) error) (Run, error) {
	var (
		r          Run
		accessible int
	)
	err := scan(&r.ID, &r.CreatedAt, &r.Wallpaper, &r.Method, &r.Quality, &accessible, &r.PaletteJSON)
	r.Accessible = accessible != 0
	return r, err
}

func (d *DB) resultsFor(runID string) ([]AppResult, error) {
	rows, err := d.db.Query(
		"SELECT app, success, output_path, backup_created, reloaded, error FROM app_results WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []AppResult
	for rows.Next() {
		var res AppResult
		var success, backup, reloaded int
		if err := rows.Scan(&res.App, &success, &res.OutputPath, &backup, &reloaded, &res.Error); err != nil {
			return nil, err
		}
		res.Success, res.BackupCreated, res.Reloaded = success != 0, backup != 0, reloaded != 0
		results = append(results, res)
	}
	return results, rows.Err()
}

// LatestRun returns the most recent run, or nil when there is none.
func (d *DB) LatestRun() (*Run, error) {
	row := d.db.QueryRow("SELECT " + runColumns + " FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1")
	r, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if r.Results, err = d.resultsFor(r.ID); err != nil {
		return nil, err
	}
	return &r, nil
}

// RunsInRange returns runs created within [from, to], oldest first.
func (d *DB) RunsInRange(from, to int64) ([]Run, error) {
	rows, err := d.db.Query(
		"SELECT "+runColumns+" FROM runs WHERE created_at >= ? AND created_at <= ? ORDER BY created_at, rowid",
		from, to,
	)
	if err != nil {
		return nil, err
	}
	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		if runs[i].Results, err = d.resultsFor(runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}
