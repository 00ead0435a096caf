package state

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps the dedup database.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Run is one row of the ingest_runs audit table.
type Run struct {
	// ID is a UUIDv7, so run ids sort chronologically.
	ID string

	// Source is "csv" or "simplefin".
	Source string

	// Profile is the CSV profile name, empty for API pulls.
	Profile string

	// StartedAt is when the run began, UTC.
	StartedAt time.Time

	// Parsed counts records successfully normalized.
	Parsed int

	// Staged counts new entries written to staging files.
	Staged int

	// Duplicates counts records suppressed as already seen.
	Duplicates int

	// Skipped counts input rows that could not be normalized.
	Skipped int
}

// Open creates or opens the dedup database at the given path, creating
// parent directories as needed. Applies required pragmas and the schema
// automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1) // Single writer to avoid SQLITE_BUSY errors
	db.SetMaxIdleConns(1) // Keep one connection ready

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// IsSeen reports whether a fingerprint has already been staged.
func (s *Store) IsSeen(ctx context.Context, fingerprint string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM seen_transactions WHERE fingerprint = ?
	`, fingerprint).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return count > 0, nil
}

// MarkSeen records a fingerprint as staged. Returns true when the
// fingerprint was new; marking an existing fingerprint is a silent
// no-op.
func (s *Store) MarkSeen(ctx context.Context, fingerprint, institution string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO seen_transactions (fingerprint, institution, seen_at)
		VALUES (?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, fingerprint, institution, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("mark seen: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark seen: rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// MarkBatch records a set of fingerprints for one institution in a
// single transaction. Returns how many were new.
func (s *Store) MarkBatch(ctx context.Context, fingerprints []string, institution string) (int, error) {
	if len(fingerprints) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mark batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seenAt := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, fp := range fingerprints {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO seen_transactions (fingerprint, institution, seen_at)
			VALUES (?, ?, ?)
			ON CONFLICT(fingerprint) DO NOTHING
		`, fp, institution, seenAt)
		if err != nil {
			return 0, fmt.Errorf("mark batch: insert: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("mark batch: rows affected: %w", err)
		}
		if rowsAffected > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mark batch: commit: %w", err)
	}
	return inserted, nil
}

// CountSeen returns the total number of recorded fingerprints.
func (s *Store) CountSeen(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seen_transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count seen: %w", err)
	}
	return count, nil
}

// RecordRun appends one run to the audit table.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_runs
		(id, source, profile, started_at, parsed, staged, duplicates, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Source,
		run.Profile,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.Parsed,
		run.Staged,
		run.Duplicates,
		run.Skipped,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first. UUIDv7 ids order by
// creation time, so sorting on id is chronological.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, profile, started_at, parsed, staged, duplicates, skipped
		FROM ingest_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt string
		if err := rows.Scan(&r.ID, &r.Source, &r.Profile, &startedAt, &r.Parsed, &r.Staged, &r.Duplicates, &r.Skipped); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("list runs: parse started_at: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
