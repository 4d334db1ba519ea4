// Package journal persists a local history of transcription requests backed
// by SQLite. The pipeline itself stays stateless; the CLI records outcomes
// here after each run.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS requests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT NOT NULL,
    source TEXT NOT NULL,
    provider TEXT NOT NULL DEFAULT '',
    backend TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    failure_kind TEXT NOT NULL DEFAULT '',
    duration_seconds REAL NOT NULL DEFAULT 0,
    segments INTEGER NOT NULL DEFAULT 0,
    transcript_chars INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at);
`

// Entry statuses.
const (
	StatusCompleted = "completed"
	StatusNoSpeech  = "no_speech"
	StatusFailed    = "failed"
)

// Entry is one recorded transcription request.
type Entry struct {
	ID              int64
	RequestID       string
	Source          string
	Provider        string
	Backend         string
	Status          string
	FailureKind     string
	DurationSeconds float64
	Segments        int
	TranscriptChars int
	CreatedAt       time.Time
}

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts one entry. A zero CreatedAt is filled with the current time.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO requests (
            request_id, source, provider, backend, status, failure_kind,
            duration_seconds, segments, transcript_chars, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID,
		entry.Source,
		entry.Provider,
		entry.Backend,
		entry.Status,
		entry.FailureKind,
		entry.DurationSeconds,
		entry.Segments,
		entry.TranscriptChars,
		created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, request_id, source, provider, backend, status, failure_kind,
                duration_seconds, segments, transcript_chars, created_at
         FROM requests ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var created string
		if err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.Source,
			&entry.Provider,
			&entry.Backend,
			&entry.Status,
			&entry.FailureKind,
			&entry.DurationSeconds,
			&entry.Segments,
			&entry.TranscriptChars,
			&created,
		); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, created); parseErr == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
