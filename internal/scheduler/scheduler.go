// Package scheduler runs the background jobs: daily due-date
// reminders, overdue marking, the periodic balance cache
// reconciliation and the stale-presence sweep.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"teampulse/internal/models"
	"teampulse/internal/services"
)

const jobTimeout = time.Minute

type Scheduler struct {
	logger        zerolog.Logger
	cron          *cron.Cron
	tasks         services.TaskService
	points        services.PointsService
	notifications services.NotificationService
	presence      services.PresenceService
}

func New(
	logger zerolog.Logger,
	tasks services.TaskService,
	points services.PointsService,
	notifications services.NotificationService,
	presence services.PresenceService,
) *Scheduler {
	return &Scheduler{
		logger:        logger,
		cron:          cron.New(cron.WithSeconds()),
		tasks:         tasks,
		points:        points,
		notifications: notifications,
		presence:      presence,
	}
}

// ScheduleDueReminders registers the daily reminder job at the
// given HH:MM time. Every unfinished task due within the horizon
// produces a task_due_reminder notification for its assignee; the
// job also flips tasks past their due date to overdue first, so a
// task never gets a reminder and the overdue status in one run.
func (s *Scheduler) ScheduleDueReminders(timeOfDay string, horizon time.Duration) error {
	spec, err := dailySpec(timeOfDay)
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.runDueReminders(ctx, horizon)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("time", timeOfDay).
		Dur("horizon", horizon).
		Msg("scheduled due reminders")
	return nil
}

// ScheduleReconciliation registers the periodic job that repairs
// balance cache rows drifted from their ledger sums.
func (s *Scheduler) ScheduleReconciliation(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	spec := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.runReconciliation(ctx)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Dur("interval", interval).
		Msg("scheduled balance reconciliation")
	return nil
}

// ScheduleIdleSweep registers the periodic job that demotes
// stored online rows gone stale past the idle threshold. The
// in-process tracker does the same for sessions it saw; this job
// catches rows the tracker lost across a restart.
func (s *Scheduler) ScheduleIdleSweep(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	spec := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.runIdleSweep(ctx)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Dur("interval", interval).
		Msg("scheduled idle sweep")
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runDueReminders(ctx context.Context, horizon time.Duration) {
	now := time.Now()

	marked, err := s.tasks.MarkOverdue(ctx, now)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to mark overdue tasks")
	} else if marked > 0 {
		s.logger.Info().
			Int64("count", marked).
			Msg("marked overdue tasks")
	}

	dueSoon, err := s.tasks.ListDueSoon(ctx, now, horizon)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list due tasks")
		return
	}

	sent := 0
	for _, task := range dueSoon {
		if task.AssigneeID == nil {
			continue
		}

		_, err = s.notifications.Create(ctx, services.CreateNotificationParams{
			UserID: *task.AssigneeID,
			Type:   models.NotificationTaskDueReminder,
			Payload: map[string]any{
				"task_id":  task.ID,
				"title":    task.Title,
				"due_date": task.DueDate,
			},
		})
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", task.ID).
				Msg("failed to create due reminder")
			continue
		}
		sent++
	}

	s.logger.Info().
		Int("due_soon", len(dueSoon)).
		Int("reminders_sent", sent).
		Msg("ran due reminders")
}

func (s *Scheduler) runReconciliation(ctx context.Context) {
	repaired, err := s.points.Reconcile(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to reconcile balances")
		return
	}
	if repaired > 0 {
		s.logger.Warn().
			Int("repaired", repaired).
			Msg("repaired drifted balance rows")
		return
	}
	s.logger.Debug().Msg("balance cache clean")
}

func (s *Scheduler) runIdleSweep(ctx context.Context) {
	demoted, err := s.presence.DemoteStale(ctx, time.Now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to sweep stale presence rows")
		return
	}
	if demoted > 0 {
		s.logger.Info().
			Int64("demoted", demoted).
			Msg("swept stale presence rows")
	}
}

// dailySpec converts an HH:MM time string into a six-field cron
// spec (second minute hour dom month dow).
func dailySpec(timeOfDay string) (string, error) {
	parts := strings.Split(timeOfDay, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeOfDay)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeOfDay)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeOfDay)
	}
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
