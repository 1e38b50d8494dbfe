package presence

import "time"

const (
	StatusOnline       = "online"
	StatusIdle         = "idle"
	StatusDoNotDisturb = "do_not_disturb"
	StatusOffline      = "offline"
)

// DefaultIdleThreshold is how long a presence record stays fresh
// before the user is forced to idle.
const DefaultIdleThreshold = 20 * time.Minute

func IsValidStatus(status string) bool {
	switch status {
	case StatusOnline, StatusIdle, StatusDoNotDisturb, StatusOffline:
		return true
	}
	return false
}

// Derive computes the display status for a user at read time.
//
// Without an open clock-in for today the user is offline no matter
// what the stored record says. With an open clock-in the stored
// status is trusted only while the record is fresh; a record older
// than the idle threshold (or missing entirely) forces idle.
func Derive(clockedIn bool, stored string, lastUpdate, now time.Time, idleThreshold time.Duration) string {
	if !clockedIn {
		return StatusOffline
	}
	if idleThreshold <= 0 {
		idleThreshold = DefaultIdleThreshold
	}
	if lastUpdate.IsZero() || now.Sub(lastUpdate) >= idleThreshold {
		return StatusIdle
	}
	if stored == "" {
		return StatusOnline
	}
	return stored
}
