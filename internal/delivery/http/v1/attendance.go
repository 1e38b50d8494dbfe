package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"teampulse/internal/models"
	"teampulse/internal/services"
)

type attendanceResponse struct {
	ID       int64      `json:"id"`
	ClockIn  time.Time  `json:"clock_in"`
	ClockOut *time.Time `json:"clock_out,omitempty"`
}

func newAttendanceResponse(record *models.AttendanceRecord) attendanceResponse {
	return attendanceResponse{
		ID:       record.ID,
		ClockIn:  record.ClockIn,
		ClockOut: record.ClockOut,
	}
}

func (h *handlerImpl) HandleClockIn(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	record, err := h.attendance.ClockIn(c, userID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyClockedIn) {
			h.logger.Warn().
				Str("user_id", userID).
				Msg("already clocked in")
			abort(c, newConflictError(services.ErrAlreadyClockedIn.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to clock in")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	h.tracker.Activity(userID)

	h.logger.Info().
		Str("user_id", userID).
		Msg("clocked in")
	c.JSON(http.StatusCreated, newAttendanceResponse(record))
}

func (h *handlerImpl) HandleClockOut(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	record, err := h.attendance.ClockOut(c, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotClockedIn) {
			h.logger.Warn().
				Str("user_id", userID).
				Msg("no open clock-in")
			abort(c, newConflictError(services.ErrNotClockedIn.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to clock out")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	h.tracker.ClockOut(userID)

	h.logger.Info().
		Str("user_id", userID).
		Msg("clocked out")
	c.JSON(http.StatusOK, newAttendanceResponse(record))
}
