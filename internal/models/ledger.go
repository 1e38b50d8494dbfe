package models

import "time"

const (
	ReasonTaskCompletion   = "task_completion"
	ReasonRewardRedemption = "reward_redemption"
	ReasonManualAdjustment = "manual_adjustment"
)

// LedgerEntry is an append-only signed points record. A user's
// balance is the sum of their entry deltas; it is never stored
// as a mutable counter.
type LedgerEntry struct {
	ID        int64
	UserID    string
	Delta     int64
	Reason    string
	TaskID    *string
	CreatedAt time.Time
}
