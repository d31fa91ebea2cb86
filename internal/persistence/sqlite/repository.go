// Package sqlite provides the default file-backed journal store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/domain"
	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/observability"
)

//go:embed schema.sql
var schemaSQL string

// Repository persists journal entries in a SQLite database.
// Timestamps are stored as Unix nanoseconds so ordering is exact.
type Repository struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema exists.
// Safe to call against an existing database.
func Open(path string) (*Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Create implements domain.LogRepository.
func (r *Repository) Create(ctx context.Context, entry domain.LogEntry) (domain.LogEntry, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.Timestamp = entry.Timestamp.UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO log_entries (timestamp_ns, activity, slot_time) VALUES (?, ?, ?)`,
		entry.Timestamp.UnixNano(),
		entry.Activity,
		entry.SlotTime,
	)
	if err != nil {
		return domain.LogEntry{}, fmt.Errorf("insert log entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.LogEntry{}, fmt.Errorf("read log entry id: %w", err)
	}
	entry.ID = id

	observability.RecordLogEntryPersisted("sqlite", entry.Timestamp)
	return entry, nil
}

// ListAll implements domain.LogRepository.
func (r *Repository) ListAll(ctx context.Context) ([]domain.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, timestamp_ns, activity, slot_time FROM log_entries ORDER BY timestamp_ns DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LogEntry, 0)
	for rows.Next() {
		var (
			entry domain.LogEntry
			nanos int64
		)
		if err := rows.Scan(&entry.ID, &nanos, &entry.Activity, &entry.SlotTime); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entry.Timestamp = time.Unix(0, nanos).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}
	return entries, nil
}
