package app

import (
	"teampulse/internal/config"
	"teampulse/internal/scheduler"
)

var globalScheduler *scheduler.Scheduler

func MustStartScheduler() {
	cfg := config.Global().Scheduler

	globalScheduler = scheduler.New(
		globalLogger,
		globalServices.tasks,
		globalServices.points,
		globalServices.notifications,
		globalServices.presence,
	)

	err := globalScheduler.ScheduleDueReminders(cfg.DueReminderTime, cfg.DueReminderHorizon)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to schedule due reminders")
		panic(err)
	}

	err = globalScheduler.ScheduleReconciliation(cfg.ReconcileInterval)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to schedule balance reconciliation")
		panic(err)
	}

	err = globalScheduler.ScheduleIdleSweep(cfg.IdleSweepInterval)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to schedule idle sweep")
		panic(err)
	}

	globalScheduler.Start()
	globalLogger.Info().Msg("started scheduler")
}

func StopScheduler() {
	globalScheduler.Stop()
	globalLogger.Info().Msg("stopped scheduler")
}
