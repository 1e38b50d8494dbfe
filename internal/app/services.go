package app

import (
	"context"

	"teampulse/internal/config"
	"teampulse/internal/dispatch"
	"teampulse/internal/services"
)

type serviceRegistry struct {
	auth          services.AuthService
	sessions      services.SessionService
	tasks         services.TaskService
	points        services.PointsService
	presence      services.PresenceService
	attendance    services.AttendanceService
	extensions    services.ExtensionService
	notifications services.NotificationService
}

var globalServices serviceRegistry

// taskLookup breaks the construction cycle between the notification
// router and the task service: the router needs task lookups, the
// task service needs the notification service, and the notification
// service needs the router. The lookup is filled in once the task
// service exists.
type taskLookup struct {
	tasks services.TaskService
}

func (l *taskLookup) TaskProject(ctx context.Context, taskID string) (string, string, string, error) {
	return l.tasks.TaskProject(ctx, taskID)
}

func InitServices() {
	cfg := config.Global()

	lookup := &taskLookup{}
	router := dispatch.NewRouter(globalLogger, lookup)

	notifications := services.NewNotificationService(globalLogger, globalPostgresPool, router)
	tasks := services.NewTaskService(globalLogger, globalPostgresPool, notifications)
	lookup.tasks = tasks

	globalServices = serviceRegistry{
		auth: services.NewAuthService(
			globalLogger,
			globalPostgresPool,
			notifications,
			cfg.JWT.Issuer,
			[]byte(cfg.JWT.SigningKey),
			cfg.JWT.AccessTokenTTL,
			cfg.JWT.RefreshTokenTTL,
		),
		sessions:      services.NewSessionService(globalLogger, globalPostgresPool),
		tasks:         tasks,
		points:        services.NewPointsService(globalLogger, globalPostgresPool),
		presence:      services.NewPresenceService(globalLogger, globalPostgresPool, cfg.Presence.IdleThreshold),
		attendance:    services.NewAttendanceService(globalLogger, globalPostgresPool),
		extensions:    services.NewExtensionService(globalLogger, globalPostgresPool, notifications),
		notifications: notifications,
	}

	globalLogger.Info().Msg("initialized services")
}
