package models

import "time"

type AttendanceRecord struct {
	ID       int64
	UserID   string
	ClockIn  time.Time
	ClockOut *time.Time
}

// Open reports whether the record is still an open clock-in.
func (r *AttendanceRecord) Open() bool {
	return r.ClockOut == nil
}
