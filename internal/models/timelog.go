package models

import "time"

// TimeLogEntry is an append-only record of a task transition.
// Entries are never updated or deleted.
type TimeLogEntry struct {
	ID     int64
	TaskID string
	UserID string
	Action string
	At     time.Time
}
