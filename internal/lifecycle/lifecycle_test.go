package lifecycle

import (
	"errors"
	"testing"

	"teampulse/internal/models"
)

func TestPlanTransitionStart(t *testing.T) {
	t.Parallel()

	task := &models.Task{Status: models.StatusTodo, Points: 50}
	plan, err := PlanTransition(ActionStart, task)
	if err != nil {
		t.Fatalf("PlanTransition() error = %v", err)
	}
	if plan.Status != models.StatusInProgress {
		t.Errorf("got status %q, want %q", plan.Status, models.StatusInProgress)
	}
	if plan.Credit != 0 {
		t.Errorf("got credit %d, want 0", plan.Credit)
	}
}

func TestPlanTransitionPause(t *testing.T) {
	t.Parallel()

	task := &models.Task{Status: models.StatusInProgress, Points: 50}
	plan, err := PlanTransition(ActionPause, task)
	if err != nil {
		t.Fatalf("PlanTransition() error = %v", err)
	}
	if plan.Status != models.StatusTodo {
		t.Errorf("got status %q, want %q", plan.Status, models.StatusTodo)
	}
	if plan.Credit != 0 {
		t.Errorf("got credit %d, want 0", plan.Credit)
	}
}

func TestPlanTransitionComplete(t *testing.T) {
	t.Parallel()

	task := &models.Task{Status: models.StatusInProgress, Points: 50}
	plan, err := PlanTransition(ActionComplete, task)
	if err != nil {
		t.Fatalf("PlanTransition() error = %v", err)
	}
	if plan.Status != models.StatusDone {
		t.Errorf("got status %q, want %q", plan.Status, models.StatusDone)
	}
	if plan.Credit != 50 {
		t.Errorf("got credit %d, want 50", plan.Credit)
	}
	if plan.CreditReason != models.ReasonTaskCompletion {
		t.Errorf("got reason %q, want %q", plan.CreditReason, models.ReasonTaskCompletion)
	}
}

func TestPlanTransitionCompleteZeroPoints(t *testing.T) {
	t.Parallel()

	task := &models.Task{Status: models.StatusInProgress}
	plan, err := PlanTransition(ActionComplete, task)
	if err != nil {
		t.Fatalf("PlanTransition() error = %v", err)
	}
	if plan.Credit != 0 || plan.CreditReason != "" {
		t.Errorf("zero-point task planned a credit: %+v", plan)
	}
}

func TestPlanTransitionCompleteTwice(t *testing.T) {
	t.Parallel()

	task := &models.Task{Status: models.StatusDone, Points: 50}
	_, err := PlanTransition(ActionComplete, task)
	if !errors.Is(err, ErrAlreadyDone) {
		t.Errorf("got error %v, want ErrAlreadyDone", err)
	}
}

func TestPlanTransitionUnknownAction(t *testing.T) {
	t.Parallel()

	task := &models.Task{Status: models.StatusTodo}
	_, err := PlanTransition("archive", task)
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("got error %v, want ErrUnknownAction", err)
	}
}

func TestIsValidAction(t *testing.T) {
	t.Parallel()

	for _, action := range []string{ActionStart, ActionPause, ActionComplete} {
		if !IsValidAction(action) {
			t.Errorf("IsValidAction(%q) = false, want true", action)
		}
	}
	if IsValidAction("finish") {
		t.Error(`IsValidAction("finish") = true, want false`)
	}
}
