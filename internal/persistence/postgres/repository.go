// Package postgres provides a Postgres-backed journal store with an optional transactional outbox.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/domain"
	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/events"
	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/observability"
)

//go:embed schema.sql
var schemaSQL string

// Option configures optional behaviour for the Repository.
type Option func(*Repository)

// WithOutbox records a log_entry.created outbox row in the same transaction as every insert.
func WithOutbox() Option {
	return func(r *Repository) {
		r.outbox = true
	}
}

// Repository provides Postgres-backed persistence for journal entries and outbox events.
type Repository struct {
	pool   *pgxpool.Pool
	outbox bool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool, opts ...Option) *Repository {
	r := &Repository{pool: pool}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureSchema creates the journal and outbox tables when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Create implements domain.LogRepository.
func (r *Repository) Create(ctx context.Context, entry domain.LogEntry) (domain.LogEntry, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.LogEntry{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertEntry = `INSERT INTO log_entries (timestamp, activity, slot_time)
        VALUES ($1,$2,$3)
        RETURNING id, timestamp`

	err = tx.QueryRow(ctx, insertEntry, entry.Timestamp, entry.Activity, entry.SlotTime).Scan(&entry.ID, &entry.Timestamp)
	if err != nil {
		return domain.LogEntry{}, fmt.Errorf("insert log entry: %w", err)
	}
	entry.Timestamp = entry.Timestamp.UTC()

	if r.outbox {
		if err = insertOutbox(ctx, tx, entry); err != nil {
			return domain.LogEntry{}, fmt.Errorf("insert outbox event: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.LogEntry{}, fmt.Errorf("commit: %w", err)
	}
	observability.RecordLogEntryPersisted("postgres", entry.Timestamp)
	return entry, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, entry domain.LogEntry) error {
	body, err := json.Marshal(events.LogEntryCreated{
		ID:        entry.ID,
		Timestamp: entry.Timestamp,
		Activity:  entry.Activity,
		SlotTime:  entry.SlotTime,
	})
	if err != nil {
		return err
	}

	meta, ok := EventCatalog[events.LogEntryCreatedType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", events.LogEntryCreatedType)
	}

	aggregateID := strconv.FormatInt(entry.ID, 10)
	dedupeKey := fmt.Sprintf("%s:%s", aggregateID, events.LogEntryCreatedType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, stmt,
		"log_entry",
		aggregateID,
		events.LogEntryCreatedType,
		meta.Topic,
		meta.PartitionKeyFn(entry),
		body,
		dedupeKey,
	)
	return err
}

// ListAll implements domain.LogRepository.
func (r *Repository) ListAll(ctx context.Context) ([]domain.LogEntry, error) {
	const query = `SELECT id, timestamp, activity, slot_time
        FROM log_entries
        ORDER BY timestamp DESC, id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	results := make([]domain.LogEntry, 0)
	for rows.Next() {
		var entry domain.LogEntry
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Activity, &entry.SlotTime); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entry.Timestamp = entry.Timestamp.UTC()
		results = append(results, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}
	return results, nil
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	PartitionKeyFn func(domain.LogEntry) string
}

// EventCatalog maps outbox event types to their Kafka routing.
var EventCatalog = map[string]EventMetadata{
	events.LogEntryCreatedType: {
		Topic: "journal_log_entries",
		PartitionKeyFn: func(e domain.LogEntry) string {
			return e.SlotTime
		},
	},
}
