package v1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"teampulse/internal/feed"
	"teampulse/internal/models"
	"teampulse/internal/services"
)

type notificationResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func newNotificationResponse(notification *models.Notification) notificationResponse {
	return notificationResponse{
		ID:        notification.ID,
		Type:      notification.Type,
		Payload:   json.RawMessage(notification.Payload),
		ReadAt:    notification.ReadAt,
		CreatedAt: notification.CreatedAt,
	}
}

func (h *handlerImpl) HandleListNotifications(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	offset, limit := paginationParams(c)

	notifications, err := h.notifications.List(c, userID, offset, limit)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list notifications")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]notificationResponse, len(notifications))
	for i, notification := range notifications {
		response[i] = newNotificationResponse(notification)
	}

	c.JSON(http.StatusOK, response)
}

type unreadCountResponse struct {
	Count int64 `json:"count"`
}

func (h *handlerImpl) HandleUnreadCount(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	count, err := h.notifications.UnreadCount(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to count unread notifications")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, unreadCountResponse{Count: count})
}

func (h *handlerImpl) HandleMarkNotificationRead(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	notificationID := c.Param("id")
	if notificationID == "" {
		h.logger.Error().Msg("no notification id provided")
		abort(c, newBadRequestError("no notification id provided"))
		return
	}

	err := h.notifications.MarkRead(c, notificationID, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			abort(c, newNotFoundError(services.ErrNotificationNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to mark notification read")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleDeleteNotification(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	notificationID := c.Param("id")
	if notificationID == "" {
		h.logger.Error().Msg("no notification id provided")
		abort(c, newBadRequestError("no notification id provided"))
		return
	}

	err := h.notifications.Delete(c, notificationID, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			abort(c, newNotFoundError(services.ErrNotificationNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to delete notification")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Status(http.StatusNoContent)
}

type routeNotificationResponse struct {
	View   string            `json:"view"`
	Params map[string]string `json:"params,omitempty"`
}

// HandleRouteNotification resolves where the client should navigate
// when the user taps a notification.
func (h *handlerImpl) HandleRouteNotification(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	role, _ := getStringFromContext(c, roleCtxKey)

	notificationID := c.Param("id")
	if notificationID == "" {
		h.logger.Error().Msg("no notification id provided")
		abort(c, newBadRequestError("no notification id provided"))
		return
	}

	destination, err := h.notifications.Route(c, notificationID, userID, role)
	if err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			abort(c, newNotFoundError(services.ErrNotificationNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to route notification")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, routeNotificationResponse{
		View:   destination.View,
		Params: destination.Params,
	})
}

// HandleNotificationStream streams the user's change feed over SSE.
// The subscription lives for the duration of the request; missed
// events are recovered by re-listing notifications.
func (h *handlerImpl) HandleNotificationStream(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	events, cancel := h.hub.Subscribe(userID)
	defer cancel()

	h.logger.Debug().
		Str("user_id", userID).
		Msg("opened notification stream")

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	// Periodic comments keep intermediaries from closing an
	// otherwise quiet connection.
	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(event.Type, notificationStreamPayload(event))
			return true
		case <-keepAlive.C:
			c.SSEvent("keep-alive", "")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	h.logger.Debug().
		Str("user_id", userID).
		Msg("closed notification stream")
}

func notificationStreamPayload(event feed.Event) string {
	if len(event.Payload) == 0 {
		return "{}"
	}
	return string(event.Payload)
}
