package feed

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func receive(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case event := <-events:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHubDeliversToOwner(t *testing.T) {
	t.Parallel()

	hub := NewHub(zerolog.Nop())
	events, cancel := hub.Subscribe("u1")
	defer cancel()

	hub.Publish(Event{UserID: "u1", Type: "task_assigned"})

	event := receive(t, events)
	if event.Type != "task_assigned" {
		t.Errorf("got type %q, want task_assigned", event.Type)
	}
}

func TestHubSkipsOtherUsers(t *testing.T) {
	t.Parallel()

	hub := NewHub(zerolog.Nop())
	events, cancel := hub.Subscribe("u1")
	defer cancel()

	hub.Publish(Event{UserID: "u2", Type: "task_assigned"})

	select {
	case event := <-events:
		t.Errorf("received foreign event %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubFansOutToAllSubscriptions(t *testing.T) {
	t.Parallel()

	hub := NewHub(zerolog.Nop())
	first, cancelFirst := hub.Subscribe("u1")
	defer cancelFirst()
	second, cancelSecond := hub.Subscribe("u1")
	defer cancelSecond()

	hub.Publish(Event{UserID: "u1", Type: "points_earned"})

	if event := receive(t, first); event.Type != "points_earned" {
		t.Errorf("first subscriber got %q", event.Type)
	}
	if event := receive(t, second); event.Type != "points_earned" {
		t.Errorf("second subscriber got %q", event.Type)
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	t.Parallel()

	hub := NewHub(zerolog.Nop())
	events, cancel := hub.Subscribe("u1")
	defer cancel()

	// One more than the buffer; the publisher must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i <= subscriberBuffer; i++ {
			hub.Publish(Event{UserID: "u1", Type: "task_assigned"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a full subscriber")
	}

	for i := 0; i < subscriberBuffer; i++ {
		receive(t, events)
	}
}

func TestHubCancelRemovesSubscription(t *testing.T) {
	t.Parallel()

	hub := NewHub(zerolog.Nop())
	_, cancel := hub.Subscribe("u1")
	if got := hub.SubscriberCount(); got != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", got)
	}

	cancel()
	if got := hub.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}
}
