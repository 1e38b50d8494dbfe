package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"teampulse/internal/config"
	v1 "teampulse/internal/delivery/http/v1"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	handler := v1.New(
		globalLogger,
		globalServices.auth,
		globalServices.sessions,
		globalServices.tasks,
		globalServices.points,
		globalServices.presence,
		globalServices.attendance,
		globalServices.extensions,
		globalServices.notifications,
		globalHub,
		globalTracker,
	)
	router = router.Group("/api/v1")

	authRouter := router.Group("/auth")
	authRouter.POST("/login", handler.HandleLogin)
	authRouter.POST("/refresh", handler.HandleRefresh)
	authRouter.POST("/register", handler.HandleRegister)
	authRouter.POST("/logout", handler.HandleAuthMiddleware, handler.HandleLogout)

	taskRouter := router.Group("/tasks", handler.HandleAuthMiddleware)
	taskRouter.POST("", handler.HandleDeciderMiddleware, handler.HandleCreateTask)
	taskRouter.GET("", handler.HandleListTasks)
	taskRouter.GET("/:id", handler.HandleGetTask)
	taskRouter.PUT("/:id/assignee", handler.HandleDeciderMiddleware, handler.HandleAssignTask)
	taskRouter.POST("/:id/transition", handler.HandleTransitionTask)

	presenceRouter := router.Group("/presence", handler.HandleAuthMiddleware)
	presenceRouter.POST("/heartbeat", handler.HandleHeartbeat)
	presenceRouter.PUT("/status", handler.HandleSetPresenceStatus)
	presenceRouter.GET("/team", handler.HandleTeamPresence)

	attendanceRouter := router.Group("/attendance", handler.HandleAuthMiddleware)
	attendanceRouter.POST("/clock-in", handler.HandleClockIn)
	attendanceRouter.POST("/clock-out", handler.HandleClockOut)

	pointsRouter := router.Group("/points", handler.HandleAuthMiddleware)
	pointsRouter.GET("/balance", handler.HandleGetBalance)
	pointsRouter.GET("/history", handler.HandleGetPointsHistory)
	pointsRouter.POST("/redeem", handler.HandleRedeemReward)
	pointsRouter.POST("/adjust", handler.HandleDeciderMiddleware, handler.HandleAdjustPoints)

	extensionRouter := router.Group("/extensions", handler.HandleAuthMiddleware)
	extensionRouter.POST("", handler.HandleRequestExtension)
	extensionRouter.GET("/pending", handler.HandleDeciderMiddleware, handler.HandleListPendingExtensions)
	extensionRouter.POST("/:id/decision", handler.HandleDeciderMiddleware, handler.HandleDecideExtension)

	notificationRouter := router.Group("/notifications", handler.HandleAuthMiddleware)
	notificationRouter.GET("", handler.HandleListNotifications)
	notificationRouter.GET("/unread-count", handler.HandleUnreadCount)
	notificationRouter.PUT("/:id/read", handler.HandleMarkNotificationRead)
	notificationRouter.DELETE("/:id", handler.HandleDeleteNotification)
	notificationRouter.GET("/:id/route", handler.HandleRouteNotification)
	notificationRouter.GET("/stream", handler.HandleNotificationStream)
}
