package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeStore struct {
	mu     sync.Mutex
	writes []statusWrite
}

type statusWrite struct {
	userID string
	status string
}

func (s *fakeStore) WriteStatus(_ context.Context, userID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, statusWrite{userID: userID, status: status})
	return nil
}

func (s *fakeStore) last(t *testing.T) statusWrite {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.writes) == 0 {
		t.Fatal("no status writes recorded")
	}
	return s.writes[len(s.writes)-1]
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func waitForWrites(t *testing.T, store *fakeStore, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for store.count() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d writes, got %d", n, store.count())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTrackerSetStatusWrites(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	tracker := NewTracker(zerolog.Nop(), store, DefaultIdleThreshold)
	go tracker.Run()
	defer tracker.Close()

	tracker.SetStatus("u1", StatusDoNotDisturb)
	waitForWrites(t, store, 1)

	write := store.last(t)
	if write.userID != "u1" || write.status != StatusDoNotDisturb {
		t.Errorf("got write %+v, want u1/%s", write, StatusDoNotDisturb)
	}
}

func TestTrackerIgnoresUnknownStatus(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	tracker := NewTracker(zerolog.Nop(), store, DefaultIdleThreshold)
	go tracker.Run()
	defer tracker.Close()

	tracker.SetStatus("u1", "away")
	tracker.SetStatus("u1", StatusOnline)
	waitForWrites(t, store, 1)

	if write := store.last(t); write.status != StatusOnline {
		t.Errorf("got status %q, want %q", write.status, StatusOnline)
	}
	if store.count() != 1 {
		t.Errorf("got %d writes, want 1", store.count())
	}
}

func TestTrackerClockOutWritesOffline(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	tracker := NewTracker(zerolog.Nop(), store, DefaultIdleThreshold)
	go tracker.Run()
	defer tracker.Close()

	tracker.Activity("u1")
	tracker.ClockOut("u1")
	waitForWrites(t, store, 1)

	write := store.last(t)
	if write.userID != "u1" || write.status != StatusOffline {
		t.Errorf("got write %+v, want u1/%s", write, StatusOffline)
	}
}

func TestTrackerActivityPromotesIdle(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	tracker := NewTracker(zerolog.Nop(), store, DefaultIdleThreshold)
	go tracker.Run()
	defer tracker.Close()

	tracker.SetStatus("u1", StatusIdle)
	waitForWrites(t, store, 1)

	tracker.Activity("u1")
	waitForWrites(t, store, 2)

	if write := store.last(t); write.status != StatusOnline {
		t.Errorf("got status %q, want %q", write.status, StatusOnline)
	}
}

func TestTrackerSweepDemotesToIdle(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	tracker := NewTracker(zerolog.Nop(), store, 20*time.Minute)
	tracker.tick = 5 * time.Millisecond

	// Pin the clock far enough ahead that every recorded activity
	// is already past the idle threshold when the sweep runs.
	var mu sync.Mutex
	current := time.Now()
	tracker.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	go tracker.Run()
	defer tracker.Close()

	tracker.Activity("u1")
	tracker.SetStatus("u2", StatusDoNotDisturb)
	waitForWrites(t, store, 1)

	mu.Lock()
	current = current.Add(21 * time.Minute)
	mu.Unlock()

	waitForWrites(t, store, 2)
	write := store.last(t)
	if write.userID != "u1" || write.status != StatusIdle {
		t.Errorf("got write %+v, want u1/%s", write, StatusIdle)
	}

	// u2 chose do-not-disturb explicitly; the sweep leaves it alone.
	time.Sleep(20 * time.Millisecond)
	if store.count() != 2 {
		t.Errorf("got %d writes, want 2", store.count())
	}
}
