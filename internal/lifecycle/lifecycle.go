// Package lifecycle holds the task transition rules: which status
// an action produces, and whether completing the task earns a
// points credit. The rules are pure; executing a plan against
// storage is the task service's job.
package lifecycle

import (
	"errors"

	"teampulse/internal/models"
)

const (
	ActionStart    = "start"
	ActionPause    = "pause"
	ActionComplete = "complete"
)

var (
	ErrUnknownAction = errors.New("unknown transition action")
	ErrAlreadyDone   = errors.New("task is already done")
)

// Plan describes the storage effects of a single transition.
// Credit is zero when no ledger entry should be appended.
type Plan struct {
	Status       string
	LogAction    string
	Credit       int64
	CreditReason string
}

// PlanTransition maps an action onto the task's next status.
//
// Completing an already-done task is rejected so that two
// concurrent sessions cannot credit the same task twice; the
// executing query repeats the guard (status <> 'done') so the
// race is also closed at the storage level.
func PlanTransition(action string, task *models.Task) (Plan, error) {
	switch action {
	case ActionStart:
		return Plan{
			Status:    models.StatusInProgress,
			LogAction: ActionStart,
		}, nil
	case ActionPause:
		return Plan{
			Status:    models.StatusTodo,
			LogAction: ActionPause,
		}, nil
	case ActionComplete:
		if task.Status == models.StatusDone {
			return Plan{}, ErrAlreadyDone
		}
		plan := Plan{
			Status:    models.StatusDone,
			LogAction: ActionComplete,
		}
		if task.Points > 0 {
			plan.Credit = task.Points
			plan.CreditReason = models.ReasonTaskCompletion
		}
		return plan, nil
	default:
		return Plan{}, ErrUnknownAction
	}
}

func IsValidAction(action string) bool {
	return action == ActionStart || action == ActionPause || action == ActionComplete
}
