// Package storage provides SQLite-based persistence for simulation run reports.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/notefall/internal/note"
)

// Store manages the SQLite database connection for run reports.
type Store struct {
	db *sql.DB
}

// RunReport summarizes one engine run.
type RunReport struct {
	ID         string
	Strategy   string
	Pattern    string
	Seed       int64
	Frames     int64
	Score      int
	MaxCombo   int
	Accuracy   float64
	Counts     map[note.JudgmentType]int
	AvgFPS     float64
	MinQuality float64
	CreatedAt  time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			strategy TEXT NOT NULL,
			pattern TEXT NOT NULL DEFAULT '',
			seed INTEGER NOT NULL DEFAULT 0,
			frames INTEGER NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0,
			max_combo INTEGER NOT NULL DEFAULT 0,
			accuracy REAL NOT NULL DEFAULT 0,
			perfect INTEGER NOT NULL DEFAULT 0,
			great INTEGER NOT NULL DEFAULT 0,
			good INTEGER NOT NULL DEFAULT 0,
			bad INTEGER NOT NULL DEFAULT 0,
			miss INTEGER NOT NULL DEFAULT 0,
			avg_fps REAL NOT NULL DEFAULT 0,
			min_quality REAL NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_strategy ON runs(strategy, score DESC);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun records a run report and returns its ID. An empty ID is filled with
// a new UUID and a zero CreatedAt with the current time.
func (s *Store) SaveRun(r RunReport) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, strategy, pattern, seed, frames, score, max_combo, accuracy,
			perfect, great, good, bad, miss, avg_fps, min_quality, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Strategy, r.Pattern, r.Seed, r.Frames, r.Score, r.MaxCombo, r.Accuracy,
		r.Counts[note.Perfect], r.Counts[note.Great], r.Counts[note.Good], r.Counts[note.Bad], r.Counts[note.Miss],
		r.AvgFPS, r.MinQuality, r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot save run: %w", err)
	}
	return r.ID, nil
}

const runColumns = `id, strategy, pattern, seed, frames, score, max_combo, accuracy,
	perfect, great, good, bad, miss, avg_fps, min_quality, created_at`

// RecentRuns retrieves the latest N run reports, newest first.
func (s *Store) RecentRuns(limit int) ([]RunReport, error) {
	return s.RecentRunsFor("", limit)
}

// RecentRunsFor retrieves the latest N run reports of one strategy, newest
// first. An empty strategy matches every run.
func (s *Store) RecentRunsFor(strategy string, limit int) ([]RunReport, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+`
		 FROM runs
		 WHERE ? = '' OR strategy = ?
		 ORDER BY created_at DESC, seq DESC
		 LIMIT ?`,
		strategy, strategy, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var reports []RunReport
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return reports, nil
}

// BestRun returns the highest-scoring run for a strategy, or across all
// strategies when strategy is empty. ok is false if no run matches.
func (s *Store) BestRun(strategy string) (RunReport, bool, error) {
	row := s.db.QueryRow(
		`SELECT `+runColumns+`
		 FROM runs
		 WHERE ? = '' OR strategy = ?
		 ORDER BY score DESC, accuracy DESC, seq ASC
		 LIMIT 1`,
		strategy, strategy,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunReport{}, false, nil
	}
	if err != nil {
		return RunReport{}, false, err
	}
	return r, true, nil
}

// ClearRuns deletes every run report.
func (s *Store) ClearRuns() error {
	_, err := s.db.Exec("DELETE FROM runs")
	if err != nil {
		return fmt.Errorf("storage: cannot clear runs: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunReport, error) {
	var r RunReport
	var perfect, great, good, bad, miss int
	var createdAt int64
	err := sc.Scan(
		&r.ID, &r.Strategy, &r.Pattern, &r.Seed, &r.Frames, &r.Score, &r.MaxCombo, &r.Accuracy,
		&perfect, &great, &good, &bad, &miss, &r.AvgFPS, &r.MinQuality, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("storage: cannot scan row: %w", err)
	}
	r.Counts = map[note.JudgmentType]int{
		note.Perfect: perfect,
		note.Great:   great,
		note.Good:    good,
		note.Bad:     bad,
		note.Miss:    miss,
	}
	r.CreatedAt = time.Unix(0, createdAt)
	return r, nil
}
