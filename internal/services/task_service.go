package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"teampulse/internal/lifecycle"
	"teampulse/internal/models"
)

type taskServiceImpl struct {
	logger        zerolog.Logger
	pgPool        *pgxpool.Pool
	notifications NotificationService
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	notifications NotificationService,
) TaskService {
	return &taskServiceImpl{
		logger:        logger,
		pgPool:        pgPool,
		notifications: notifications,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	if params.Priority == "" {
		params.Priority = models.PriorityMedium
	}
	if !models.IsValidPriority(params.Priority) {
		return nil, ErrInvalidPriority
	}
	if params.TaskType == "" {
		params.TaskType = models.TaskTypeTask
	}

	const selectProjectQuery = `
SELECT name
FROM projects
WHERE id = $1
`
	var projectName string
	err := s.pgPool.QueryRow(
		ctx,
		selectProjectQuery,
		params.ProjectID,
	).Scan(&projectName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("project_id", params.ProjectID).
				Msg("project not found")
			return nil, ErrProjectNotFound
		}

		s.logger.Error().
			Err(err).
			Str("project_id", params.ProjectID).
			Msg("failed to select project")
		return nil, err
	}

	now := time.Now()
	task := &models.Task{
		ProjectID:   params.ProjectID,
		Title:       params.Title,
		Description: params.Description,
		Status:      models.StatusTodo,
		Priority:    params.Priority,
		TaskType:    params.TaskType,
		DueDate:     params.DueDate,
		AssigneeID:  params.AssigneeID,
		Points:      params.Points,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}
	task.ID = taskUUID.String()

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   project_id,
                   title,
                   description,
                   status,
                   priority,
                   task_type,
                   due_date,
                   assignee_id,
                   points,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.ProjectID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.TaskType,
		task.DueDate,
		task.AssigneeID,
		task.Points,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("inserted task")

	if task.AssigneeID != nil {
		s.notifyAssigned(ctx, task)
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("project_id", task.ProjectID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	task := &models.Task{ID: taskID}

	const selectTaskQuery = `
SELECT project_id,
       title,
       description,
       status,
       priority,
       task_type,
       due_date,
       assignee_id,
       points,
       created_at,
       updated_at
FROM tasks
WHERE id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskQuery,
		task.ID,
	).Scan(
		&task.ProjectID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.TaskType,
		&task.DueDate,
		&task.AssigneeID,
		&task.Points,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", task.ID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to select task")
		return nil, err
	}

	return task, nil
}

func (s *taskServiceImpl) ListProjectTasks(ctx context.Context, projectID string, offset, limit uint32) ([]*models.Task, error) {
	const selectTasksByProjectQuery = `
SELECT id,
       project_id,
       title,
       description,
       status,
       priority,
       task_type,
       due_date,
       assignee_id,
       points,
       created_at,
       updated_at
FROM tasks
WHERE project_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`
	return s.listTasks(ctx, selectTasksByProjectQuery, projectID, offset, limit)
}

func (s *taskServiceImpl) ListAssignedTasks(ctx context.Context, userID string, offset, limit uint32) ([]*models.Task, error) {
	const selectTasksByAssigneeQuery = `
SELECT id,
       project_id,
       title,
       description,
       status,
       priority,
       task_type,
       due_date,
       assignee_id,
       points,
       created_at,
       updated_at
FROM tasks
WHERE assignee_id = $1
ORDER BY due_date ASC NULLS LAST, created_at DESC
LIMIT $2 OFFSET $3
`
	return s.listTasks(ctx, selectTasksByAssigneeQuery, userID, offset, limit)
}

func (s *taskServiceImpl) listTasks(ctx context.Context, query, key string, offset, limit uint32) ([]*models.Task, error) {
	if limit == 0 {
		// 32 is just a random number.
		limit = 32
	}

	rows, err := s.pgPool.Query(ctx, query, key, limit, offset)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0, limit)
	for rows.Next() {
		task := &models.Task{}
		err = rows.Scan(
			&task.ID,
			&task.ProjectID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.Priority,
			&task.TaskType,
			&task.DueDate,
			&task.AssigneeID,
			&task.Points,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Msg("selected tasks")
	return tasks, nil
}

func (s *taskServiceImpl) AssignTask(ctx context.Context, params AssignTaskParams) (*models.Task, error) {
	if params.Priority != nil && !models.IsValidPriority(*params.Priority) {
		return nil, ErrInvalidPriority
	}

	const updateTaskAssignmentQuery = `
UPDATE tasks
SET assignee_id = $1,
    priority = COALESCE($2, priority),
    due_date = COALESCE($3, due_date),
    updated_at = $4
WHERE id = $5
RETURNING project_id, title, description, status, priority, task_type,
          due_date, points, created_at
`
	task := &models.Task{
		ID:        params.TaskID,
		UpdatedAt: time.Now(),
	}
	assigneeID := params.AssigneeID
	task.AssigneeID = &assigneeID

	err := s.pgPool.QueryRow(
		ctx,
		updateTaskAssignmentQuery,
		task.AssigneeID,
		params.Priority,
		params.DueDate,
		task.UpdatedAt,
		task.ID,
	).Scan(
		&task.ProjectID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.TaskType,
		&task.DueDate,
		&task.Points,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", task.ID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to assign task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Str("assignee_id", assigneeID).
		Msg("updated task assignment")

	s.notifyAssigned(ctx, task)

	s.logger.Info().
		Str("task_id", task.ID).
		Str("assignee_id", assigneeID).
		Str("actor_id", params.ActorID).
		Msg("assigned task")
	return task, nil
}

// Transition executes one lifecycle action. The status update,
// the completion credit with its balance cache update, and the
// time log append all happen in a single transaction. The status
// update carries a status <> 'done' guard on completion, so two
// racing sessions cannot both credit the task: the loser sees
// zero rows affected and gets ErrTaskAlreadyDone.
func (s *taskServiceImpl) Transition(ctx context.Context, params TransitionParams) (*TransitionResult, error) {
	if !lifecycle.IsValidAction(params.Action) {
		return nil, ErrInvalidAction
	}

	task, err := s.GetTask(ctx, params.TaskID)
	if err != nil {
		return nil, err
	}

	assignedToActor := task.AssigneeID != nil && *task.AssigneeID == params.UserID
	if !assignedToActor {
		actor := models.User{Role: params.ActorRole}
		if !actor.CanDecide() {
			s.logger.Error().
				Str("task_id", task.ID).
				Str("user_id", params.UserID).
				Msg("transition attempted by non-assignee")
			return nil, ErrForbidden
		}
	}

	plan, err := lifecycle.PlanTransition(params.Action, task)
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrAlreadyDone):
			return nil, ErrTaskAlreadyDone
		case errors.Is(err, lifecycle.ErrUnknownAction):
			return nil, ErrInvalidAction
		}
		return nil, err
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()

	updateStatusQuery := `
UPDATE tasks
SET status = $1,
    updated_at = $2
WHERE id = $3
`
	if params.Action == lifecycle.ActionComplete {
		updateStatusQuery += "  AND status <> '" + models.StatusDone + "'\n"
	}
	tag, err := tx.Exec(
		ctx,
		updateStatusQuery,
		plan.Status,
		now,
		task.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task status")
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn().
			Str("task_id", task.ID).
			Msg("task completed by a concurrent session")
		return nil, ErrTaskAlreadyDone
	}
	task.Status = plan.Status
	task.UpdatedAt = now

	if plan.Credit > 0 {
		const insertLedgerEntryQuery = `
INSERT INTO ledger_entries (user_id, delta, reason, task_id, created_at)
VALUES ($1, $2, $3, $4, $5)
`
		_, err = tx.Exec(
			ctx,
			insertLedgerEntryQuery,
			params.UserID,
			plan.Credit,
			plan.CreditReason,
			task.ID,
			now,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", task.ID).
				Msg("failed to insert ledger entry")
			return nil, err
		}

		const upsertBalanceQuery = `
INSERT INTO balances (user_id, balance, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id)
DO UPDATE SET balance = balances.balance + EXCLUDED.balance,
              updated_at = EXCLUDED.updated_at
`
		_, err = tx.Exec(
			ctx,
			upsertBalanceQuery,
			params.UserID,
			plan.Credit,
			now,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("user_id", params.UserID).
				Msg("failed to update balance cache")
			return nil, err
		}
	}

	const insertTimeLogQuery = `
INSERT INTO time_logs (task_id, user_id, action, at)
VALUES ($1, $2, $3, $4)
`
	_, err = tx.Exec(
		ctx,
		insertTimeLogQuery,
		task.ID,
		params.UserID,
		plan.LogAction,
		now,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to insert time log entry")
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	if plan.Credit > 0 {
		_, err = s.notifications.Create(ctx, CreateNotificationParams{
			UserID: params.UserID,
			Type:   models.NotificationPointsEarned,
			Payload: map[string]any{
				"task_id": task.ID,
				"delta":   plan.Credit,
			},
		})
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", task.ID).
				Msg("failed to create points_earned notification")
		}
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", params.UserID).
		Str("action", params.Action).
		Str("status", task.Status).
		Int64("credited", plan.Credit).
		Msg("transitioned task")
	return &TransitionResult{
		Task:          task,
		CreditedDelta: plan.Credit,
	}, nil
}

func (s *taskServiceImpl) TaskProject(ctx context.Context, taskID string) (string, string, string, error) {
	const selectTaskProjectQuery = `
SELECT p.id,
       p.name,
       t.task_type
FROM tasks t
JOIN projects p ON p.id = t.project_id
WHERE t.id = $1
`
	var projectID, projectName, taskType string
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskProjectQuery,
		taskID,
	).Scan(
		&projectID,
		&projectName,
		&taskType,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Str("task_id", taskID).
				Msg("task project not found")
			return "", "", "", ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to select task project")
		return "", "", "", err
	}

	return projectID, projectName, taskType, nil
}

func (s *taskServiceImpl) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	const markOverdueQuery = `
UPDATE tasks
SET status = $1,
    updated_at = $2
WHERE due_date < $2 AND
      status NOT IN ($1, $3, $4)
`
	tag, err := s.pgPool.Exec(
		ctx,
		markOverdueQuery,
		models.StatusOverdue,
		now,
		models.StatusDone,
		models.StatusSubmitted,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to mark overdue tasks")
		return 0, err
	}
	s.logger.Debug().
		Int64("affected", tag.RowsAffected()).
		Msg("marked overdue tasks")

	return tag.RowsAffected(), nil
}

func (s *taskServiceImpl) ListDueSoon(ctx context.Context, now time.Time, horizon time.Duration) ([]*models.Task, error) {
	const selectDueSoonQuery = `
SELECT id,
       project_id,
       title,
       description,
       status,
       priority,
       task_type,
       due_date,
       assignee_id,
       points,
       created_at,
       updated_at
FROM tasks
WHERE due_date BETWEEN $1 AND $2 AND
      status NOT IN ($3, $4) AND
      assignee_id IS NOT NULL
ORDER BY due_date ASC
`
	rows, err := s.pgPool.Query(
		ctx,
		selectDueSoonQuery,
		now,
		now.Add(horizon),
		models.StatusDone,
		models.StatusSubmitted,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select due soon tasks")
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		err = rows.Scan(
			&task.ID,
			&task.ProjectID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.Priority,
			&task.TaskType,
			&task.DueDate,
			&task.AssigneeID,
			&task.Points,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	return tasks, nil
}

func (s *taskServiceImpl) notifyAssigned(ctx context.Context, task *models.Task) {
	if task.AssigneeID == nil {
		return
	}

	_, err := s.notifications.Create(ctx, CreateNotificationParams{
		UserID: *task.AssigneeID,
		Type:   models.NotificationTaskAssigned,
		Payload: map[string]any{
			"task_id": task.ID,
			"title":   task.Title,
		},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to create task_assigned notification")
	}
}
