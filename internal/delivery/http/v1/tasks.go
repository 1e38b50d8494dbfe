package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"teampulse/internal/models"
	"teampulse/internal/services"
)

type getTaskResponse struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	TaskType    string     `json:"task_type"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	Points      int64      `json:"points"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	return getTaskResponse{
		ID:          task.ID,
		ProjectID:   task.ProjectID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		TaskType:    task.TaskType,
		DueDate:     task.DueDate,
		AssigneeID:  task.AssigneeID,
		Points:      task.Points,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

type createTaskRequest struct {
	ProjectID   string     `json:"project_id" binding:"required"`
	Title       string     `json:"title" binding:"required,max=255"`
	Description *string    `json:"description,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	TaskType    *string    `json:"task_type,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	Points      int64      `json:"points"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	params := services.CreateTaskParams{
		ProjectID:  req.ProjectID,
		Title:      req.Title,
		DueDate:    req.DueDate,
		AssigneeID: req.AssigneeID,
		Points:     req.Points,
		ActorID:    userID,
	}
	if req.Description != nil {
		params.Description = *req.Description
	}
	if req.Priority != nil {
		params.Priority = *req.Priority
	}
	if req.TaskType != nil {
		params.TaskType = *req.TaskType
	}

	task, err := h.tasks.CreateTask(c, params)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		switch {
		case errors.Is(err, services.ErrProjectNotFound):
			abort(c, newNotFoundError(services.ErrProjectNotFound.Error()))
		case errors.Is(err, services.ErrInvalidPriority):
			abort(c, newBadRequestError(services.ErrInvalidPriority.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	h.logger.Info().
		Str("task_id", task.ID).
		Msg("created task")
	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError("no task id provided"))
		return
	}

	task, err := h.tasks.GetTask(c, taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			h.logger.Warn().
				Str("task_id", taskID).
				Msg("task not found")
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to fetch task")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

// HandleListTasks serves both task listings: with a project query
// parameter it lists the project's tasks, without one it lists the
// tasks assigned to the calling user.
func (h *handlerImpl) HandleListTasks(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	offset, limit := paginationParams(c)

	var (
		tasks []*models.Task
		err   error
	)
	projectID := c.Query("project")
	if projectID != "" {
		tasks, err = h.tasks.ListProjectTasks(c, projectID, offset, limit)
	} else {
		tasks, err = h.tasks.ListAssignedTasks(c, userID, offset, limit)
	}
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]getTaskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newGetTaskResponse(task)
	}

	c.JSON(http.StatusOK, response)
}

type assignTaskRequest struct {
	AssigneeID string     `json:"assignee_id" binding:"required"`
	Priority   *string    `json:"priority,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

func (h *handlerImpl) HandleAssignTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError("no task id provided"))
		return
	}

	var req assignTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.AssignTask(c, services.AssignTaskParams{
		TaskID:     taskID,
		AssigneeID: req.AssigneeID,
		Priority:   req.Priority,
		DueDate:    req.DueDate,
		ActorID:    userID,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to assign task")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		case errors.Is(err, services.ErrInvalidPriority):
			abort(c, newBadRequestError(services.ErrInvalidPriority.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	h.logger.Info().
		Str("task_id", task.ID).
		Str("assignee_id", req.AssigneeID).
		Msg("assigned task")
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

type transitionTaskResponse struct {
	Task          getTaskResponse `json:"task"`
	CreditedDelta int64           `json:"credited_delta"`
}

func (h *handlerImpl) HandleTransitionTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	role, _ := getStringFromContext(c, roleCtxKey)

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError("no task id provided"))
		return
	}

	action := c.Query("action")
	if action == "" {
		h.logger.Error().Msg("no action provided")
		abort(c, newBadRequestError("no action provided"))
		return
	}

	result, err := h.tasks.Transition(c, services.TransitionParams{
		TaskID:    taskID,
		UserID:    userID,
		ActorRole: role,
		Action:    action,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Str("action", action).
			Msg("failed to transition task")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		case errors.Is(err, services.ErrInvalidAction):
			abort(c, newBadRequestError(services.ErrInvalidAction.Error()))
		case errors.Is(err, services.ErrForbidden):
			abort(c, newForbiddenError(services.ErrForbidden.Error()))
		case errors.Is(err, services.ErrTaskAlreadyDone):
			abort(c, newConflictError(services.ErrTaskAlreadyDone.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	h.logger.Info().
		Str("task_id", taskID).
		Str("action", action).
		Int64("credited_delta", result.CreditedDelta).
		Msg("transitioned task")
	c.JSON(http.StatusOK, transitionTaskResponse{
		Task:          newGetTaskResponse(result.Task),
		CreditedDelta: result.CreditedDelta,
	})
}

func paginationParams(c *gin.Context) (offset, limit uint32) {
	parse := func(name string, fallback uint32) uint32 {
		raw := c.Query(name)
		if raw == "" {
			return fallback
		}
		value, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return fallback
		}
		return uint32(value)
	}
	return parse("offset", 0), parse("limit", 32)
}
