package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"teampulse/internal/feed"
	"teampulse/internal/presence"
	"teampulse/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleDeciderMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleListTasks(c *gin.Context)
	HandleAssignTask(c *gin.Context)
	HandleTransitionTask(c *gin.Context)

	HandleHeartbeat(c *gin.Context)
	HandleSetPresenceStatus(c *gin.Context)
	HandleTeamPresence(c *gin.Context)

	HandleClockIn(c *gin.Context)
	HandleClockOut(c *gin.Context)

	HandleGetBalance(c *gin.Context)
	HandleGetPointsHistory(c *gin.Context)
	HandleRedeemReward(c *gin.Context)
	HandleAdjustPoints(c *gin.Context)

	HandleRequestExtension(c *gin.Context)
	HandleListPendingExtensions(c *gin.Context)
	HandleDecideExtension(c *gin.Context)

	HandleListNotifications(c *gin.Context)
	HandleUnreadCount(c *gin.Context)
	HandleMarkNotificationRead(c *gin.Context)
	HandleDeleteNotification(c *gin.Context)
	HandleRouteNotification(c *gin.Context)
	HandleNotificationStream(c *gin.Context)
}

type handlerImpl struct {
	logger        zerolog.Logger
	auth          services.AuthService
	sessions      services.SessionService
	tasks         services.TaskService
	points        services.PointsService
	presence      services.PresenceService
	attendance    services.AttendanceService
	extensions    services.ExtensionService
	notifications services.NotificationService
	hub           *feed.Hub
	tracker       *presence.Tracker
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	sessionService services.SessionService,
	taskService services.TaskService,
	pointsService services.PointsService,
	presenceService services.PresenceService,
	attendanceService services.AttendanceService,
	extensionService services.ExtensionService,
	notificationService services.NotificationService,
	hub *feed.Hub,
	tracker *presence.Tracker,
) Handler {
	return &handlerImpl{
		logger:        logger,
		auth:          authService,
		sessions:      sessionService,
		tasks:         taskService,
		points:        pointsService,
		presence:      presenceService,
		attendance:    attendanceService,
		extensions:    extensionService,
		notifications: notificationService,
		hub:           hub,
		tracker:       tracker,
	}
}
