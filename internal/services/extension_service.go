package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"teampulse/internal/models"
)

type extensionServiceImpl struct {
	logger        zerolog.Logger
	pgPool        *pgxpool.Pool
	notifications NotificationService
}

func NewExtensionService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	notifications NotificationService,
) ExtensionService {
	return &extensionServiceImpl{
		logger:        logger,
		pgPool:        pgPool,
		notifications: notifications,
	}
}

// ValidateExtensionRequest checks the request before anything is
// written: a blank reason or an absent date fails outright.
func ValidateExtensionRequest(params ExtensionRequestParams) error {
	if strings.TrimSpace(params.Reason) == "" {
		return ErrExtensionValidation
	}
	if params.RequestedDue.IsZero() {
		return ErrExtensionValidation
	}
	return nil
}

func (s *extensionServiceImpl) Request(ctx context.Context, params ExtensionRequestParams) (*models.ExtensionRequest, error) {
	err := ValidateExtensionRequest(params)
	if err != nil {
		s.logger.Warn().
			Str("task_id", params.TaskID).
			Str("requester_id", params.RequesterID).
			Msg("rejected invalid extension request")
		return nil, err
	}

	request := &models.ExtensionRequest{
		TaskID:       params.TaskID,
		RequesterID:  params.RequesterID,
		RequestedDue: params.RequestedDue,
		Reason:       params.Reason,
		Status:       models.ExtensionPending,
		CreatedAt:    time.Now(),
	}

	requestUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate request uuid")
		return nil, err
	}
	request.ID = requestUUID.String()

	const insertRequestQuery = `
INSERT INTO extension_requests (id,
                                task_id,
                                requester_id,
                                requested_due,
                                reason,
                                status,
                                created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertRequestQuery,
		request.ID,
		request.TaskID,
		request.RequesterID,
		request.RequestedDue,
		request.Reason,
		request.Status,
		request.CreatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", request.TaskID).
			Msg("failed to insert extension request")
		return nil, err
	}
	s.logger.Debug().
		Str("request_id", request.ID).
		Msg("inserted extension request")

	s.notifyDeciders(ctx, request)

	s.logger.Info().
		Str("request_id", request.ID).
		Str("task_id", request.TaskID).
		Str("requester_id", request.RequesterID).
		Msg("requested extension")
	return request, nil
}

// Decide approves or rejects a pending request. An approval also
// moves the task's due date; both writes share one transaction so
// a decided request can never disagree with its task.
func (s *extensionServiceImpl) Decide(ctx context.Context, params ExtensionDecisionParams) (*models.ExtensionRequest, error) {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	request := &models.ExtensionRequest{ID: params.RequestID}

	const selectRequestQuery = `
SELECT task_id,
       requester_id,
       requested_due,
       reason,
       status,
       created_at
FROM extension_requests
WHERE id = $1
FOR UPDATE
`
	err = tx.QueryRow(
		ctx,
		selectRequestQuery,
		request.ID,
	).Scan(
		&request.TaskID,
		&request.RequesterID,
		&request.RequestedDue,
		&request.Reason,
		&request.Status,
		&request.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("request_id", request.ID).
				Msg("extension request not found")
			return nil, ErrExtensionNotFound
		}

		s.logger.Error().
			Err(err).
			Str("request_id", request.ID).
			Msg("failed to select extension request")
		return nil, err
	}

	if request.Status != models.ExtensionPending {
		s.logger.Warn().
			Str("request_id", request.ID).
			Str("status", request.Status).
			Msg("extension request already decided")
		return nil, ErrExtensionAlreadyDecided
	}

	now := time.Now()
	status := models.ExtensionRejected
	if params.Approve {
		status = models.ExtensionApproved
	}

	const updateRequestQuery = `
UPDATE extension_requests
SET status = $1,
    decider_id = $2,
    decided_at = $3
WHERE id = $4
`
	_, err = tx.Exec(
		ctx,
		updateRequestQuery,
		status,
		params.DeciderID,
		now,
		request.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("request_id", request.ID).
			Msg("failed to update extension request")
		return nil, err
	}

	if params.Approve {
		const updateTaskDueQuery = `
UPDATE tasks
SET due_date = $1,
    updated_at = $2
WHERE id = $3
`
		_, err = tx.Exec(
			ctx,
			updateTaskDueQuery,
			request.RequestedDue,
			now,
			request.TaskID,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", request.TaskID).
				Msg("failed to update task due date")
			return nil, err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	request.Status = status
	request.DeciderID = &params.DeciderID
	request.DecidedAt = &now

	notificationType := models.NotificationExtensionRejected
	if params.Approve {
		notificationType = models.NotificationExtensionApproved
	}
	_, err = s.notifications.Create(ctx, CreateNotificationParams{
		UserID: request.RequesterID,
		Type:   notificationType,
		Payload: map[string]any{
			"request_id": request.ID,
			"task_id":    request.TaskID,
		},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("request_id", request.ID).
			Msg("failed to create decision notification")
	}

	s.logger.Info().
		Str("request_id", request.ID).
		Str("decider_id", params.DeciderID).
		Str("status", status).
		Msg("decided extension request")
	return request, nil
}

func (s *extensionServiceImpl) ListPending(ctx context.Context, offset, limit uint32) ([]*models.ExtensionRequest, error) {
	if limit == 0 {
		limit = 32
	}

	const selectPendingQuery = `
SELECT id,
       task_id,
       requester_id,
       requested_due,
       reason,
       created_at
FROM extension_requests
WHERE status = $1
ORDER BY created_at ASC
LIMIT $2 OFFSET $3
`
	rows, err := s.pgPool.Query(
		ctx,
		selectPendingQuery,
		models.ExtensionPending,
		limit,
		offset,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select pending extension requests")
		return nil, err
	}
	defer rows.Close()

	requests := make([]*models.ExtensionRequest, 0, limit)
	for rows.Next() {
		request := &models.ExtensionRequest{Status: models.ExtensionPending}
		err = rows.Scan(
			&request.ID,
			&request.TaskID,
			&request.RequesterID,
			&request.RequestedDue,
			&request.Reason,
			&request.CreatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan extension request")
			return nil, err
		}
		requests = append(requests, request)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	return requests, nil
}

// notifyDeciders tells supervisors and admins a new request is
// waiting. Best effort; the request row already committed.
func (s *extensionServiceImpl) notifyDeciders(ctx context.Context, request *models.ExtensionRequest) {
	const selectDecidersQuery = `
SELECT id
FROM users
WHERE role IN ($1, $2)
`
	rows, err := s.pgPool.Query(
		ctx,
		selectDecidersQuery,
		models.RoleSupervisor,
		models.RoleAdmin,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select deciders")
		return
	}
	defer rows.Close()

	var deciderIDs []string
	for rows.Next() {
		var id string
		err = rows.Scan(&id)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan decider id")
			return
		}
		deciderIDs = append(deciderIDs, id)
	}
	if rows.Err() != nil {
		s.logger.Error().
			Err(rows.Err()).
			Msg("failed to iterate over deciders")
		return
	}

	for _, deciderID := range deciderIDs {
		_, err = s.notifications.Create(ctx, CreateNotificationParams{
			UserID: deciderID,
			Type:   models.NotificationExtensionRequested,
			Payload: map[string]any{
				"request_id": request.ID,
				"task_id":    request.TaskID,
			},
		})
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("user_id", deciderID).
				Msg("failed to create extension_requested notification")
		}
	}
}
