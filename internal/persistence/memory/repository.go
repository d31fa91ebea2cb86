// Package memory provides an in-process journal store for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/domain"
	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/observability"
)

// Repository keeps entries in a slice guarded by a mutex. Contents are lost on exit.
type Repository struct {
	mu      sync.RWMutex
	entries []domain.LogEntry
	lastID  int64
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Create implements domain.LogRepository.
func (r *Repository) Create(ctx context.Context, entry domain.LogEntry) (domain.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.LogEntry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Timestamp = entry.Timestamp.UTC()
	r.lastID++
	entry.ID = r.lastID
	r.entries = append(r.entries, entry)

	observability.RecordLogEntryPersisted("memory", entry.Timestamp)
	return entry, nil
}

// ListAll implements domain.LogRepository.
func (r *Repository) ListAll(ctx context.Context) ([]domain.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]domain.LogEntry, len(r.entries))
	copy(out, r.entries)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
