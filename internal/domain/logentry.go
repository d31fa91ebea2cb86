package domain

import "time"

// LogEntry is a single journal record. Entries are append-only: once the store
// has assigned ID and Timestamp nothing mutates them.
type LogEntry struct {
	ID        int64
	Timestamp time.Time
	Activity  string
	SlotTime  string
}
