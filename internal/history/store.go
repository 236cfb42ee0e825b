// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists pipeline run records in a SQLite database so past
// acquisitions can be inspected without re-crawling the sources.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/regdoc-engine/pkg/types"
)

const dbFile = "regdoc.db"

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at historyDir/regdoc.db,
// creating the schema if it does not exist.
func NewStore(historyDir string) (*Store, error) {
	if err := os.MkdirAll(historyDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(historyDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			slug TEXT NOT NULL,
			substance TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT,
			total_found INTEGER,
			total_relevant INTEGER,
			total_downloaded INTEGER,
			started_at TEXT NOT NULL,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_slug ON runs(slug)`,
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(rowid),
			source TEXT,
			title TEXT,
			filename TEXT NOT NULL,
			original_url TEXT,
			size_bytes INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_run_id ON documents(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores one pipeline result and its downloaded documents.
func (s *Store) Record(result types.PipelineResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (slug, substance, status, message, total_found, total_relevant, total_downloaded, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Slug, result.Substance, string(result.Status), result.Message,
		result.TotalFound, result.TotalRelevant, result.TotalDownloaded,
		result.StartedAt.UTC().Format(time.RFC3339), result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}

	for _, doc := range result.Hits {
		_, err := tx.Exec(
			`INSERT INTO documents (run_id, source, title, filename, original_url, size_bytes)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, doc.Source, doc.Title, doc.Filename, doc.OriginalURL, doc.SizeBytes,
		)
		if err != nil {
			return fmt.Errorf("inserting document: %w", err)
		}
	}

	return tx.Commit()
}

// Run is one recorded pipeline run.
type Run struct {
	Slug            string
	Substance       string
	Status          types.RunStatus
	Message         string
	TotalFound      int
	TotalRelevant   int
	TotalDownloaded int
	StartedAt       time.Time
	Duration        time.Duration
}

// Latest returns the most recent run for a slug, or nil when the substance
// was never fetched.
func (s *Store) Latest(slug string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT slug, substance, status, message, total_found, total_relevant, total_downloaded, started_at, duration_ms
		 FROM runs WHERE slug = ? ORDER BY rowid DESC LIMIT 1`, slug)

	var r Run
	var status, startedAt string
	var durationMs int64
	err := row.Scan(&r.Slug, &r.Substance, &status, &r.Message,
		&r.TotalFound, &r.TotalRelevant, &r.TotalDownloaded, &startedAt, &durationMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}

	r.Status = types.RunStatus(status)
	r.Duration = time.Duration(durationMs) * time.Millisecond
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		r.StartedAt = t
	}
	return &r, nil
}

// Runs returns all recorded runs, newest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT slug, substance, status, message, total_found, total_relevant, total_downloaded, started_at, duration_ms
		 FROM runs ORDER BY rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var status, startedAt string
		var durationMs int64
		if err := rows.Scan(&r.Slug, &r.Substance, &status, &r.Message,
			&r.TotalFound, &r.TotalRelevant, &r.TotalDownloaded, &startedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Status = types.RunStatus(status)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			r.StartedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
