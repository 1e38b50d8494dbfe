package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"teampulse/internal/dispatch"
	"teampulse/internal/feed"
	"teampulse/internal/models"
)

type notificationServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	router *dispatch.Router
}

func NewNotificationService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	router *dispatch.Router,
) NotificationService {
	return &notificationServiceImpl{
		logger: logger,
		pgPool: pgPool,
		router: router,
	}
}

// Create persists the notification and emits it on the change
// feed channel. pg_notify runs after the insert in the same
// statement batch; delivery to subscribers is at-least-once and
// a failed NOTIFY is logged, not surfaced, because the row is
// what the client recovers from.
func (s *notificationServiceImpl) Create(ctx context.Context, params CreateNotificationParams) (*models.Notification, error) {
	payload, err := json.Marshal(params.Payload)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("type", params.Type).
			Msg("failed to marshal notification payload")
		return nil, err
	}

	notification := &models.Notification{
		UserID:    params.UserID,
		Type:      params.Type,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	notificationUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate notification uuid")
		return nil, err
	}
	notification.ID = notificationUUID.String()

	const insertNotificationQuery = `
INSERT INTO notifications (id, user_id, type, payload, created_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertNotificationQuery,
		notification.ID,
		notification.UserID,
		notification.Type,
		notification.Payload,
		notification.CreatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("type", notification.Type).
			Msg("failed to insert notification")
		return nil, err
	}
	s.logger.Debug().
		Str("notification_id", notification.ID).
		Str("user_id", notification.UserID).
		Str("type", notification.Type).
		Msg("inserted notification")

	event, err := json.Marshal(feed.Event{
		UserID:  notification.UserID,
		Type:    notification.Type,
		Payload: notification.Payload,
	})
	if err == nil {
		_, err = s.pgPool.Exec(ctx, "SELECT pg_notify($1, $2)", feed.Channel, string(event))
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("notification_id", notification.ID).
			Msg("failed to emit change feed event")
	}

	return notification, nil
}

func (s *notificationServiceImpl) List(ctx context.Context, userID string, offset, limit uint32) ([]*models.Notification, error) {
	if limit == 0 {
		limit = 32
	}

	const selectNotificationsQuery = `
SELECT id,
       type,
       payload,
       read_at,
       created_at
FROM notifications
WHERE user_id = $1
ORDER BY read_at IS NOT NULL, created_at DESC
LIMIT $2 OFFSET $3
`
	rows, err := s.pgPool.Query(
		ctx,
		selectNotificationsQuery,
		userID,
		limit,
		offset,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select notifications")
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0, limit)
	for rows.Next() {
		notification := &models.Notification{UserID: userID}
		err = rows.Scan(
			&notification.ID,
			&notification.Type,
			&notification.Payload,
			&notification.ReadAt,
			&notification.CreatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan notification")
			return nil, err
		}
		notifications = append(notifications, notification)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	return notifications, nil
}

func (s *notificationServiceImpl) UnreadCount(ctx context.Context, userID string) (int64, error) {
	const selectUnreadCountQuery = `
SELECT COUNT(*)
FROM notifications
WHERE user_id = $1 AND
      read_at IS NULL
`
	var count int64
	err := s.pgPool.QueryRow(
		ctx,
		selectUnreadCountQuery,
		userID,
	).Scan(&count)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to count unread notifications")
		return 0, err
	}

	return count, nil
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, notificationID, userID string) error {
	const markReadQuery = `
UPDATE notifications
SET read_at = $1
WHERE id = $2 AND
      user_id = $3 AND
      read_at IS NULL
`
	tag, err := s.pgPool.Exec(
		ctx,
		markReadQuery,
		time.Now(),
		notificationID,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("notification_id", notificationID).
			Msg("failed to mark notification read")
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either missing, foreign, or already read. Marking an
		// already-read notification again is a no-op, not an
		// error, because the feed can deliver duplicates.
		exists, err := s.ownedExists(ctx, notificationID, userID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotificationNotFound
		}
	}

	s.logger.Debug().
		Str("notification_id", notificationID).
		Msg("marked notification read")
	return nil
}

func (s *notificationServiceImpl) Delete(ctx context.Context, notificationID, userID string) error {
	const deleteNotificationQuery = `
DELETE FROM notifications
WHERE id = $1 AND
      user_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteNotificationQuery,
		notificationID,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("notification_id", notificationID).
			Msg("failed to delete notification")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn().
			Str("notification_id", notificationID).
			Msg("notification not found")
		return ErrNotificationNotFound
	}

	s.logger.Info().
		Str("notification_id", notificationID).
		Msg("deleted notification")
	return nil
}

func (s *notificationServiceImpl) Route(ctx context.Context, notificationID, userID, role string) (dispatch.Destination, error) {
	notification := &models.Notification{
		ID:     notificationID,
		UserID: userID,
	}

	const selectNotificationQuery = `
SELECT type,
       payload
FROM notifications
WHERE id = $1 AND
      user_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectNotificationQuery,
		notification.ID,
		notification.UserID,
	).Scan(
		&notification.Type,
		&notification.Payload,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("notification_id", notification.ID).
				Msg("notification not found")
			return dispatch.Destination{}, ErrNotificationNotFound
		}

		s.logger.Error().
			Err(err).
			Str("notification_id", notification.ID).
			Msg("failed to select notification")
		return dispatch.Destination{}, err
	}

	return s.router.Resolve(ctx, notification, role), nil
}

func (s *notificationServiceImpl) ownedExists(ctx context.Context, notificationID, userID string) (bool, error) {
	const selectExistsQuery = `
SELECT EXISTS (
	SELECT 1
	FROM notifications
	WHERE id = $1 AND
	      user_id = $2
)
`
	var exists bool
	err := s.pgPool.QueryRow(
		ctx,
		selectExistsQuery,
		notificationID,
		userID,
	).Scan(&exists)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("notification_id", notificationID).
			Msg("failed to check notification existence")
		return false, err
	}
	return exists, nil
}
