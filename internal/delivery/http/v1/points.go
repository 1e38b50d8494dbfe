package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"teampulse/internal/models"
	"teampulse/internal/services"
)

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

func (h *handlerImpl) HandleGetBalance(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	balance, err := h.points.Balance(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to fetch balance")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, balanceResponse{Balance: balance})
}

type ledgerEntryResponse struct {
	ID        int64     `json:"id"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	TaskID    *string   `json:"task_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newLedgerEntryResponse(entry *models.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:        entry.ID,
		Delta:     entry.Delta,
		Reason:    entry.Reason,
		TaskID:    entry.TaskID,
		CreatedAt: entry.CreatedAt,
	}
}

func (h *handlerImpl) HandleGetPointsHistory(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	offset, limit := paginationParams(c)

	entries, err := h.points.History(c, userID, offset, limit)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to fetch points history")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]ledgerEntryResponse, len(entries))
	for i, entry := range entries {
		response[i] = newLedgerEntryResponse(entry)
	}

	c.JSON(http.StatusOK, response)
}

type redeemRequest struct {
	Reward string `json:"reward" binding:"required,max=255"`
	Cost   int64  `json:"cost" binding:"required,gt=0"`
}

func (h *handlerImpl) HandleRedeemReward(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req redeemRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	entry, err := h.points.Redeem(c, services.RedeemParams{
		UserID: userID,
		Cost:   req.Cost,
		Reward: req.Reward,
	})
	if err != nil {
		if errors.Is(err, services.ErrInsufficientPoints) {
			h.logger.Warn().
				Str("user_id", userID).
				Int64("cost", req.Cost).
				Msg("insufficient points")
			abort(c, newConflictError(services.ErrInsufficientPoints.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to redeem reward")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	h.logger.Info().
		Str("user_id", userID).
		Str("reward", req.Reward).
		Int64("cost", req.Cost).
		Msg("redeemed reward")
	c.JSON(http.StatusCreated, newLedgerEntryResponse(entry))
}

type adjustRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Delta  int64  `json:"delta" binding:"required"`
}

func (h *handlerImpl) HandleAdjustPoints(c *gin.Context) {
	actorID, _ := getStringFromContext(c, userIDCtxKey)

	var req adjustRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	entry, err := h.points.Adjust(c, services.AdjustParams{
		UserID:  req.UserID,
		Delta:   req.Delta,
		ActorID: actorID,
	})
	if err != nil {
		if errors.Is(err, services.ErrZeroAdjustment) {
			abort(c, newBadRequestError(services.ErrZeroAdjustment.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to adjust points")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	h.logger.Info().
		Str("user_id", req.UserID).
		Str("actor_id", actorID).
		Int64("delta", req.Delta).
		Msg("adjusted points")
	c.JSON(http.StatusCreated, newLedgerEntryResponse(entry))
}
