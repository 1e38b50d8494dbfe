// Package ledger derives point balances from append-only entries.
// The entries are the only authoritative representation; the
// balances table is a cache repaired by reconciliation.
package ledger

import "teampulse/internal/models"

// Balance sums the entry deltas for a single user's history.
func Balance(entries []models.LedgerEntry) int64 {
	var total int64
	for _, entry := range entries {
		total += entry.Delta
	}
	return total
}

// Drift is a cached balance that disagrees with the ledger sum.
type Drift struct {
	UserID string
	Cached int64
	Actual int64
}

// Diff compares cached balances against the per-user ledger sums.
// Users present on either side are checked; a missing cache row
// counts as zero.
func Diff(cached, actual map[string]int64) []Drift {
	var drifts []Drift
	for userID, sum := range actual {
		if cached[userID] != sum {
			drifts = append(drifts, Drift{
				UserID: userID,
				Cached: cached[userID],
				Actual: sum,
			})
		}
	}
	for userID, cache := range cached {
		if _, ok := actual[userID]; !ok && cache != 0 {
			drifts = append(drifts, Drift{
				UserID: userID,
				Cached: cache,
				Actual: 0,
			})
		}
	}
	return drifts
}
