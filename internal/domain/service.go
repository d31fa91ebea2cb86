// Package domain defines the journal's entry model and the service that records and lists entries.
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrMissingData is returned when activity or slot_time is absent or empty.
var ErrMissingData = errors.New("missing data")

// LogRepository captures persistence operations.
type LogRepository interface {
	// Create assigns the next id, stamps the current time when entry.Timestamp
	// is zero, and persists the entry.
	Create(ctx context.Context, entry LogEntry) (LogEntry, error)
	// ListAll returns every entry, most recent timestamp first.
	ListAll(ctx context.Context) ([]LogEntry, error)
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the clock used to stamp new entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service orchestrates journal workflows.
type Service struct {
	repo LogRepository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo LogRepository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateLogEntryInput captures the payload from the API layer.
type CreateLogEntryInput struct {
	Activity string
	SlotTime string
}

// Validate checks presence only. slot_time is opaque text and is never parsed.
func (in CreateLogEntryInput) Validate() error {
	if in.Activity == "" || in.SlotTime == "" {
		return ErrMissingData
	}
	return nil
}

// CreateLogEntry validates the input, stamps it with the service clock and persists it.
func (s *Service) CreateLogEntry(ctx context.Context, input CreateLogEntryInput) (*LogEntry, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	entry, err := s.repo.Create(ctx, LogEntry{
		Timestamp: s.now().UTC(),
		Activity:  input.Activity,
		SlotTime:  input.SlotTime,
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListLogEntries returns all entries in descending timestamp order.
func (s *Service) ListLogEntries(ctx context.Context) ([]LogEntry, error) {
	return s.repo.ListAll(ctx)
}
