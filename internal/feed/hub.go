// Package feed delivers row-change events to subscribed clients.
// Events originate as Postgres NOTIFY payloads and fan out to
// per-user channels consumed by SSE handlers. Delivery is
// at-least-once; consumers must tolerate duplicates and
// reordering across rows.
package feed

import (
	"sync"

	"github.com/rs/zerolog"
)

// Event is one row-level change on the notifications table.
type Event struct {
	UserID  string `json:"user_id"`
	Type    string `json:"type"`
	Payload []byte `json:"payload"`
}

const subscriberBuffer = 16

type subscriber struct {
	userID string
	ch     chan Event
}

// Hub fans events out to per-user subscribers. A subscriber whose
// buffer is full is skipped rather than blocking the publisher;
// clients recover missed events by re-listing notifications.
type Hub struct {
	logger zerolog.Logger

	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:      logger,
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Subscribe registers interest in one user's events. The returned
// cancel func must be called when the client disconnects.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	sub := &subscriber{
		userID: userID,
		ch:     make(chan Event, subscriberBuffer),
	}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subscribers, sub)
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		if sub.userID != event.UserID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			h.logger.Warn().
				Str("user_id", sub.userID).
				Msg("subscriber buffer full, dropping event")
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
