package models

import "time"

// PresenceRecord is one row per user, upserted by the user's own
// client. The stored status is a hint; readers derive the display
// status from it together with today's attendance.
type PresenceRecord struct {
	UserID    string
	Status    string
	TaskID    *string
	UpdatedAt time.Time
}
