package presence

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Store persists a derived status change produced by the tracker.
type Store interface {
	WriteStatus(ctx context.Context, userID, status string) error
}

type eventKind int

const (
	eventActivity eventKind = iota
	eventSetStatus
	eventClockOut
)

type event struct {
	kind   eventKind
	userID string
	status string
}

type userState struct {
	status       string
	lastActivity time.Time
}

// Tracker is the single reactive presence state machine. All
// refresh triggers (activity heartbeats, explicit status changes,
// clock-outs) feed one event channel consumed by a single
// goroutine; a ticker demotes users to idle after the threshold
// without activity. Store failures are logged and the affected
// user keeps their in-memory state; they never stop the loop.
type Tracker struct {
	logger        zerolog.Logger
	store         Store
	idleThreshold time.Duration
	tick          time.Duration

	events chan event
	done   chan struct{}
	closed chan struct{}

	now func() time.Time
}

func NewTracker(logger zerolog.Logger, store Store, idleThreshold time.Duration) *Tracker {
	if idleThreshold <= 0 {
		idleThreshold = DefaultIdleThreshold
	}
	return &Tracker{
		logger:        logger,
		store:         store,
		idleThreshold: idleThreshold,
		tick:          time.Minute,
		events:        make(chan event, 64),
		done:          make(chan struct{}),
		closed:        make(chan struct{}),
		now:           time.Now,
	}
}

// Activity records a user input event (pointer, key, scroll,
// touch relayed by the client as a heartbeat).
func (t *Tracker) Activity(userID string) {
	t.send(event{kind: eventActivity, userID: userID})
}

// SetStatus records an explicit status change, which takes effect
// immediately and resets the idle clock.
func (t *Tracker) SetStatus(userID, status string) {
	t.send(event{kind: eventSetStatus, userID: userID, status: status})
}

// ClockOut drops the user from tracking and writes offline.
func (t *Tracker) ClockOut(userID string) {
	t.send(event{kind: eventClockOut, userID: userID})
}

func (t *Tracker) send(e event) {
	select {
	case t.events <- e:
	case <-t.done:
	}
}

func (t *Tracker) Run() {
	defer close(t.closed)

	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	users := make(map[string]*userState)
	for {
		select {
		case e := <-t.events:
			t.handle(users, e)
		case <-ticker.C:
			t.sweep(users)
		case <-t.done:
			return
		}
	}
}

func (t *Tracker) Close() {
	close(t.done)
	<-t.closed
}

func (t *Tracker) handle(users map[string]*userState, e event) {
	switch e.kind {
	case eventActivity:
		state, ok := users[e.userID]
		if !ok {
			state = &userState{status: StatusOnline}
			users[e.userID] = state
		}
		if state.status == StatusIdle {
			state.status = StatusOnline
			t.flush(e.userID, StatusOnline)
		}
		state.lastActivity = t.now()
	case eventSetStatus:
		if !IsValidStatus(e.status) {
			t.logger.Warn().
				Str("user_id", e.userID).
				Str("status", e.status).
				Msg("ignoring unknown presence status")
			return
		}
		users[e.userID] = &userState{
			status:       e.status,
			lastActivity: t.now(),
		}
		t.flush(e.userID, e.status)
	case eventClockOut:
		delete(users, e.userID)
		t.flush(e.userID, StatusOffline)
	}
}

// sweep demotes users without activity past the idle threshold.
// Do-not-disturb is an explicit choice and is left alone.
func (t *Tracker) sweep(users map[string]*userState) {
	now := t.now()
	for userID, state := range users {
		if state.status != StatusOnline {
			continue
		}
		if now.Sub(state.lastActivity) < t.idleThreshold {
			continue
		}
		state.status = StatusIdle
		t.flush(userID, StatusIdle)
	}
}

func (t *Tracker) flush(userID, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := t.store.WriteStatus(ctx, userID, status)
	if err != nil {
		t.logger.Error().
			Err(err).
			Str("user_id", userID).
			Str("status", status).
			Msg("failed to write presence status")
		return
	}
	t.logger.Debug().
		Str("user_id", userID).
		Str("status", status).
		Msg("wrote presence status")
}
