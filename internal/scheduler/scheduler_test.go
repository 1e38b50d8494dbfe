package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"teampulse/internal/services"
)

type fakePresenceService struct {
	mu      sync.Mutex
	sweeps  []time.Time
	demoted int64
}

func (f *fakePresenceService) Heartbeat(context.Context, string, *string) error { return nil }

func (f *fakePresenceService) SetStatus(context.Context, string, string) error { return nil }

func (f *fakePresenceService) WriteStatus(context.Context, string, string) error { return nil }

func (f *fakePresenceService) TeamPresence(context.Context) ([]*services.TeamPresenceEntry, error) {
	return nil, nil
}

func (f *fakePresenceService) DemoteStale(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps = append(f.sweeps, now)
	return f.demoted, nil
}

func TestRunIdleSweepDemotesStaleRows(t *testing.T) {
	t.Parallel()

	fake := &fakePresenceService{demoted: 2}
	s := &Scheduler{
		logger:   zerolog.Nop(),
		presence: fake,
	}

	before := time.Now()
	s.runIdleSweep(context.Background())

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.sweeps) != 1 {
		t.Fatalf("DemoteStale called %d times, want 1", len(fake.sweeps))
	}
	if fake.sweeps[0].Before(before) {
		t.Errorf("sweep time %v predates the run", fake.sweeps[0])
	}
}

func TestScheduleIdleSweepRejectsBadInterval(t *testing.T) {
	t.Parallel()

	s := New(zerolog.Nop(), nil, nil, nil, &fakePresenceService{})
	if err := s.ScheduleIdleSweep(0); err == nil {
		t.Fatal("ScheduleIdleSweep(0) expected an error")
	}
}

func TestDailySpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		timeOfDay string
		want      string
		wantErr   bool
	}{
		{timeOfDay: "09:00", want: "0 0 9 * * *"},
		{timeOfDay: "23:59", want: "0 59 23 * * *"},
		{timeOfDay: "0:5", want: "0 5 0 * * *"},
		{timeOfDay: "24:00", wantErr: true},
		{timeOfDay: "09:60", wantErr: true},
		{timeOfDay: "morning", wantErr: true},
		{timeOfDay: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.timeOfDay, func(t *testing.T) {
			t.Parallel()

			got, err := dailySpec(tt.timeOfDay)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("dailySpec(%q) expected an error", tt.timeOfDay)
				}
				return
			}
			if err != nil {
				t.Fatalf("dailySpec(%q) error = %v", tt.timeOfDay, err)
			}
			if got != tt.want {
				t.Errorf("dailySpec(%q) = %q, want %q", tt.timeOfDay, got, tt.want)
			}
		})
	}
}
