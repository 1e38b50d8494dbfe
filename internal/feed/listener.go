package feed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Channel is the Postgres NOTIFY channel the notification service
// publishes on.
const Channel = "teampulse_notifications"

// Listener holds a dedicated connection on LISTEN and republishes
// every NOTIFY payload into the hub. The connection is re-acquired
// with backoff after failures; listening is best-effort and never
// takes the process down.
type Listener struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	hub    *Hub
}

func NewListener(logger zerolog.Logger, pgPool *pgxpool.Pool, hub *Hub) *Listener {
	return &Listener{
		logger: logger,
		pgPool: pgPool,
		hub:    hub,
	}
}

func (l *Listener) Run(ctx context.Context) {
	const retryDelay = 5 * time.Second

	for {
		err := l.listen(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}

		l.logger.Error().
			Err(err).
			Dur("retry_in", retryDelay).
			Msg("change feed listener failed")

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pgPool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, "LISTEN "+Channel)
	if err != nil {
		return err
	}
	l.logger.Info().
		Str("channel", Channel).
		Msg("listening for notification changes")

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var event Event
		err = json.Unmarshal([]byte(notification.Payload), &event)
		if err != nil {
			l.logger.Error().
				Err(err).
				Str("payload", notification.Payload).
				Msg("failed to unmarshal change feed payload")
			continue
		}

		l.hub.Publish(event)
	}
}
