package ledger

import (
	"testing"

	"teampulse/internal/models"
)

func TestBalance(t *testing.T) {
	t.Parallel()

	entries := []models.LedgerEntry{
		{Delta: 50, Reason: models.ReasonTaskCompletion},
		{Delta: 30, Reason: models.ReasonTaskCompletion},
		{Delta: -60, Reason: models.ReasonRewardRedemption},
		{Delta: 5, Reason: models.ReasonManualAdjustment},
	}
	if got := Balance(entries); got != 25 {
		t.Errorf("Balance() = %d, want 25", got)
	}
}

func TestBalanceEmpty(t *testing.T) {
	t.Parallel()

	if got := Balance(nil); got != 0 {
		t.Errorf("Balance(nil) = %d, want 0", got)
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	cached := map[string]int64{
		"u1": 100,
		"u2": 40,
		"u4": 10,
	}
	actual := map[string]int64{
		"u1": 100,
		"u2": 55,
		"u3": 20,
	}

	drifts := Diff(cached, actual)
	byUser := make(map[string]Drift, len(drifts))
	for _, drift := range drifts {
		byUser[drift.UserID] = drift
	}

	if len(drifts) != 3 {
		t.Fatalf("got %d drifts, want 3: %+v", len(drifts), drifts)
	}
	if drift := byUser["u2"]; drift.Cached != 40 || drift.Actual != 55 {
		t.Errorf("u2 drift = %+v, want cached 40 actual 55", drift)
	}
	if drift := byUser["u3"]; drift.Cached != 0 || drift.Actual != 20 {
		t.Errorf("u3 drift = %+v, want cached 0 actual 20", drift)
	}
	if drift := byUser["u4"]; drift.Cached != 10 || drift.Actual != 0 {
		t.Errorf("u4 drift = %+v, want cached 10 actual 0", drift)
	}
}

func TestDiffClean(t *testing.T) {
	t.Parallel()

	cached := map[string]int64{"u1": 100, "u2": 0}
	actual := map[string]int64{"u1": 100}

	if drifts := Diff(cached, actual); len(drifts) != 0 {
		t.Errorf("got drifts %+v, want none", drifts)
	}
}
