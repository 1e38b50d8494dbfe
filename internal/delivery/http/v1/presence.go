package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"teampulse/internal/services"
)

type heartbeatRequest struct {
	TaskID *string `json:"task_id,omitempty"`
}

// HandleHeartbeat records a client activity ping. The stored row is
// overwritten (last write wins across tabs) and the tracker resets
// the user's idle clock.
func (h *handlerImpl) HandleHeartbeat(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req heartbeatRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	err = h.presence.Heartbeat(c, userID, req.TaskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to record heartbeat")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	h.tracker.Activity(userID)
	c.Status(http.StatusNoContent)
}

type setPresenceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *handlerImpl) HandleSetPresenceStatus(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req setPresenceStatusRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	err = h.presence.SetStatus(c, userID, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPresenceStatus) {
			h.logger.Warn().
				Str("status", req.Status).
				Msg("invalid presence status")
			abort(c, newBadRequestError(services.ErrInvalidPresenceStatus.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to set presence status")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	h.tracker.SetStatus(userID, req.Status)

	h.logger.Info().
		Str("user_id", userID).
		Str("status", req.Status).
		Msg("set presence status")
	c.Status(http.StatusNoContent)
}

type teamPresenceResponse struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Status      string  `json:"status"`
	TaskID      *string `json:"task_id,omitempty"`
}

func (h *handlerImpl) HandleTeamPresence(c *gin.Context) {
	entries, err := h.presence.TeamPresence(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to fetch team presence")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]teamPresenceResponse, len(entries))
	for i, entry := range entries {
		response[i] = teamPresenceResponse{
			UserID:      entry.UserID,
			DisplayName: entry.DisplayName,
			Status:      entry.Status,
			TaskID:      entry.TaskID,
		}
	}

	c.JSON(http.StatusOK, response)
}
