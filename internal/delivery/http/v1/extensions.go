package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"teampulse/internal/models"
	"teampulse/internal/services"
)

type extensionResponse struct {
	ID           string     `json:"id"`
	TaskID       string     `json:"task_id"`
	RequesterID  string     `json:"requester_id"`
	RequestedDue time.Time  `json:"requested_due"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	DeciderID    *string    `json:"decider_id,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func newExtensionResponse(request *models.ExtensionRequest) extensionResponse {
	return extensionResponse{
		ID:           request.ID,
		TaskID:       request.TaskID,
		RequesterID:  request.RequesterID,
		RequestedDue: request.RequestedDue,
		Reason:       request.Reason,
		Status:       request.Status,
		DeciderID:    request.DeciderID,
		DecidedAt:    request.DecidedAt,
		CreatedAt:    request.CreatedAt,
	}
}

type requestExtensionRequest struct {
	TaskID       string    `json:"task_id" binding:"required"`
	RequestedDue time.Time `json:"requested_due" binding:"required"`
	Reason       string    `json:"reason" binding:"required"`
}

func (h *handlerImpl) HandleRequestExtension(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req requestExtensionRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	request, err := h.extensions.Request(c, services.ExtensionRequestParams{
		TaskID:       req.TaskID,
		RequesterID:  userID,
		RequestedDue: req.RequestedDue,
		Reason:       req.Reason,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to request extension")
		switch {
		case errors.Is(err, services.ErrExtensionValidation):
			abort(c, newBadRequestError(services.ErrExtensionValidation.Error()))
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	h.logger.Info().
		Str("request_id", request.ID).
		Str("task_id", request.TaskID).
		Msg("requested extension")
	c.JSON(http.StatusCreated, newExtensionResponse(request))
}

func (h *handlerImpl) HandleListPendingExtensions(c *gin.Context) {
	offset, limit := paginationParams(c)

	requests, err := h.extensions.ListPending(c, offset, limit)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list pending extensions")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]extensionResponse, len(requests))
	for i, request := range requests {
		response[i] = newExtensionResponse(request)
	}

	c.JSON(http.StatusOK, response)
}

type decideExtensionRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

func (h *handlerImpl) HandleDecideExtension(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	requestID := c.Param("id")
	if requestID == "" {
		h.logger.Error().Msg("no request id provided")
		abort(c, newBadRequestError("no request id provided"))
		return
	}

	var req decideExtensionRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	request, err := h.extensions.Decide(c, services.ExtensionDecisionParams{
		RequestID: requestID,
		DeciderID: userID,
		Approve:   *req.Approve,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("failed to decide extension")
		switch {
		case errors.Is(err, services.ErrExtensionNotFound):
			abort(c, newNotFoundError(services.ErrExtensionNotFound.Error()))
		case errors.Is(err, services.ErrExtensionAlreadyDecided):
			abort(c, newConflictError(services.ErrExtensionAlreadyDecided.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	h.logger.Info().
		Str("request_id", request.ID).
		Str("status", request.Status).
		Msg("decided extension")
	c.JSON(http.StatusOK, newExtensionResponse(request))
}
