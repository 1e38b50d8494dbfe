package models

import "time"

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusBlocked    = "blocked"
	StatusDone       = "done"
	StatusSubmitted  = "submitted"
	StatusOverdue    = "overdue"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

const (
	TaskTypeTask       = "task"
	TaskTypeAssignment = "assignment"
)

type Task struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Status      string
	Priority    string
	TaskType    string
	DueDate     *time.Time
	AssigneeID  *string
	Points      int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func IsValidTaskStatus(status string) bool {
	switch status {
	case StatusTodo, StatusInProgress, StatusBlocked,
		StatusDone, StatusSubmitted, StatusOverdue:
		return true
	}
	return false
}

func IsValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
