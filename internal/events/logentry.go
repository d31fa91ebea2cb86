// Package events defines the journal's published event payloads.
package events

import "time"

// LogEntryCreatedType is the outbox event type for a newly recorded entry.
const LogEntryCreatedType = "log_entry.created"

// LogEntryCreated is emitted once per persisted journal entry.
type LogEntryCreated struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Activity  string    `json:"activity"`
	SlotTime  string    `json:"slot_time"`
}
