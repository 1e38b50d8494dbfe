package services

import (
	"testing"
	"time"

	"teampulse/internal/presence"
)

func strPtr(s string) *string {
	return &s
}

func TestApplyPresenceHint(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)
	threshold := 20 * time.Minute

	tests := []struct {
		name       string
		hint       presenceHint
		wantStatus string
		wantTaskID *string
	}{
		{
			name: "fresh online keeps task",
			hint: presenceHint{
				status:    presence.StatusOnline,
				taskID:    strPtr("task-1"),
				updatedAt: now.Add(-time.Minute),
				clockedIn: true,
			},
			wantStatus: presence.StatusOnline,
			wantTaskID: strPtr("task-1"),
		},
		{
			name: "stale record forces idle",
			hint: presenceHint{
				status:    presence.StatusOnline,
				taskID:    strPtr("task-1"),
				updatedAt: now.Add(-time.Hour),
				clockedIn: true,
			},
			wantStatus: presence.StatusIdle,
			wantTaskID: strPtr("task-1"),
		},
		{
			name: "fresh do not disturb preserved",
			hint: presenceHint{
				status:    presence.StatusDoNotDisturb,
				updatedAt: now.Add(-time.Minute),
				clockedIn: true,
			},
			wantStatus: presence.StatusDoNotDisturb,
		},
		{
			name: "not clocked in stays offline and hides task",
			hint: presenceHint{
				status:    presence.StatusOnline,
				taskID:    strPtr("task-1"),
				updatedAt: now.Add(-time.Minute),
				clockedIn: false,
			},
			wantStatus: presence.StatusOffline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entry := &TeamPresenceEntry{
				UserID:      "user-1",
				DisplayName: "Alice",
				Status:      presence.StatusOffline,
			}
			applyPresenceHint(entry, tt.hint, now, threshold)

			if entry.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", entry.Status, tt.wantStatus)
			}
			if (entry.TaskID == nil) != (tt.wantTaskID == nil) {
				t.Fatalf("task id = %v, want %v", entry.TaskID, tt.wantTaskID)
			}
			if entry.TaskID != nil && *entry.TaskID != *tt.wantTaskID {
				t.Errorf("task id = %q, want %q", *entry.TaskID, *tt.wantTaskID)
			}
			if entry.UserID != "user-1" || entry.DisplayName != "Alice" {
				t.Errorf("identity changed: %q %q", entry.UserID, entry.DisplayName)
			}
		})
	}
}

// A user whose hint could not be read keeps the roster defaults:
// identity intact, offline, no task. The listing itself survives.
func TestTeamPresenceMissingHintDegradesToOffline(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)
	threshold := 20 * time.Minute

	entries := []*TeamPresenceEntry{
		{UserID: "user-1", DisplayName: "Alice", Status: presence.StatusOffline},
		{UserID: "user-2", DisplayName: "Bob", Status: presence.StatusOffline},
	}
	hints := map[string]presenceHint{
		"user-2": {
			status:    presence.StatusOnline,
			taskID:    strPtr("task-2"),
			updatedAt: now.Add(-time.Minute),
			clockedIn: true,
		},
	}

	for _, entry := range entries {
		hint, ok := hints[entry.UserID]
		if !ok {
			continue
		}
		applyPresenceHint(entry, hint, now, threshold)
	}

	degraded := entries[0]
	if degraded.Status != presence.StatusOffline {
		t.Errorf("degraded status = %q, want %q", degraded.Status, presence.StatusOffline)
	}
	if degraded.TaskID != nil {
		t.Errorf("degraded task id = %q, want nil", *degraded.TaskID)
	}
	if degraded.UserID != "user-1" || degraded.DisplayName != "Alice" {
		t.Errorf("degraded identity lost: %q %q", degraded.UserID, degraded.DisplayName)
	}

	upgraded := entries[1]
	if upgraded.Status != presence.StatusOnline {
		t.Errorf("upgraded status = %q, want %q", upgraded.Status, presence.StatusOnline)
	}
	if upgraded.TaskID == nil || *upgraded.TaskID != "task-2" {
		t.Errorf("upgraded task id = %v, want task-2", upgraded.TaskID)
	}
}
