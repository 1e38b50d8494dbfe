package presence

import (
	"testing"
	"time"
)

func TestDerive(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		clockedIn  bool
		stored     string
		lastUpdate time.Time
		want       string
	}{
		{
			name:       "not clocked in is offline regardless of stored status",
			clockedIn:  false,
			stored:     StatusOnline,
			lastUpdate: now,
			want:       StatusOffline,
		},
		{
			name:       "not clocked in ignores do not disturb",
			clockedIn:  false,
			stored:     StatusDoNotDisturb,
			lastUpdate: now,
			want:       StatusOffline,
		},
		{
			name:      "clocked in without a presence record is idle",
			clockedIn: true,
			want:      StatusIdle,
		},
		{
			name:       "stale record forces idle",
			clockedIn:  true,
			stored:     StatusOnline,
			lastUpdate: now.Add(-25 * time.Minute),
			want:       StatusIdle,
		},
		{
			name:       "record exactly at the threshold is stale",
			clockedIn:  true,
			stored:     StatusOnline,
			lastUpdate: now.Add(-DefaultIdleThreshold),
			want:       StatusIdle,
		},
		{
			name:       "fresh record without a status is online",
			clockedIn:  true,
			stored:     "",
			lastUpdate: now.Add(-time.Minute),
			want:       StatusOnline,
		},
		{
			name:       "fresh record keeps the stored status",
			clockedIn:  true,
			stored:     StatusDoNotDisturb,
			lastUpdate: now.Add(-time.Minute),
			want:       StatusDoNotDisturb,
		},
		{
			name:       "fresh idle record stays idle",
			clockedIn:  true,
			stored:     StatusIdle,
			lastUpdate: now.Add(-time.Minute),
			want:       StatusIdle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Derive(tt.clockedIn, tt.stored, tt.lastUpdate, now, DefaultIdleThreshold)
			if got != tt.want {
				t.Errorf("Derive() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveDefaultsThreshold(t *testing.T) {
	t.Parallel()

	now := time.Now()
	got := Derive(true, StatusOnline, now.Add(-time.Minute), now, 0)
	if got != StatusOnline {
		t.Errorf("Derive() with zero threshold = %q, want %q", got, StatusOnline)
	}
}

func TestIsValidStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []string{StatusOnline, StatusIdle, StatusDoNotDisturb, StatusOffline} {
		if !IsValidStatus(status) {
			t.Errorf("IsValidStatus(%q) = false, want true", status)
		}
	}
	if IsValidStatus("away") {
		t.Error(`IsValidStatus("away") = true, want false`)
	}
}
