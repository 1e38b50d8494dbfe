// Package dispatch resolves where a notification should take the
// user when clicked. The mapping from notification type to view is
// fixed; task-scoped types need two dependent lookups (task to
// project, project to name) before the destination is complete.
package dispatch

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"teampulse/internal/models"
)

const (
	ViewPendingExtensions = "pending_extensions"
	ViewExtensions        = "extensions"
	ViewProjectTasks      = "project_tasks"
	ViewRewardsShop       = "rewards_shop"
	ViewTeam              = "team"
	ViewTeamDashboard     = "team_dashboard"
	ViewMyTasks           = "my_tasks"
)

const (
	TabTasks       = "tasks"
	TabAssignments = "assignments"
)

// Destination is an abstract navigation target the client renders.
type Destination struct {
	View   string            `json:"view"`
	Params map[string]string `json:"params,omitempty"`
}

// TaskLookup resolves the project a task belongs to. Both lookups
// of the dependent chain (task -> project, project -> name) are
// folded into one call because a failure of either produces the
// same fallback.
type TaskLookup interface {
	TaskProject(ctx context.Context, taskID string) (projectID, projectName, taskType string, err error)
}

type Router struct {
	logger zerolog.Logger
	tasks  TaskLookup
}

func NewRouter(logger zerolog.Logger, tasks TaskLookup) *Router {
	return &Router{
		logger: logger,
		tasks:  tasks,
	}
}

type taskPayload struct {
	TaskID string `json:"task_id"`
}

// Resolve maps a notification to its destination. Unroutable
// types and failed lookups fall back to the role's default list
// view instead of failing; the caller always gets somewhere to go.
func (r *Router) Resolve(ctx context.Context, n *models.Notification, role string) Destination {
	switch n.Type {
	case models.NotificationExtensionRequested:
		return Destination{View: ViewPendingExtensions}
	case models.NotificationExtensionApproved:
		return Destination{
			View:   ViewExtensions,
			Params: map[string]string{"status": models.ExtensionApproved},
		}
	case models.NotificationExtensionRejected:
		return Destination{
			View:   ViewExtensions,
			Params: map[string]string{"status": models.ExtensionRejected},
		}
	case models.NotificationTaskAssigned, models.NotificationTaskDueReminder:
		return r.resolveTask(ctx, n, role)
	case models.NotificationPointsEarned:
		return Destination{View: ViewRewardsShop}
	case models.NotificationMemberJoined:
		return Destination{View: ViewTeam}
	default:
		r.logger.Warn().
			Str("notification_id", n.ID).
			Str("type", n.Type).
			Msg("unroutable notification type")
		return Fallback(role)
	}
}

func (r *Router) resolveTask(ctx context.Context, n *models.Notification, role string) Destination {
	var payload taskPayload
	err := json.Unmarshal(n.Payload, &payload)
	if err != nil || payload.TaskID == "" {
		r.logger.Warn().
			Err(err).
			Str("notification_id", n.ID).
			Msg("notification payload has no task id")
		return Fallback(role)
	}

	projectID, projectName, taskType, err := r.tasks.TaskProject(ctx, payload.TaskID)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("task_id", payload.TaskID).
			Msg("task lookup failed, falling back to default view")
		return Fallback(role)
	}

	tab := TabTasks
	if taskType == models.TaskTypeAssignment {
		tab = TabAssignments
	}
	return Destination{
		View: ViewProjectTasks,
		Params: map[string]string{
			"project_id":   projectID,
			"project_name": projectName,
			"tab":          tab,
			"task_id":      payload.TaskID,
		},
	}
}

// Fallback is the role-appropriate default list view.
func Fallback(role string) Destination {
	if role == models.RoleSupervisor || role == models.RoleAdmin {
		return Destination{View: ViewTeamDashboard}
	}
	return Destination{View: ViewMyTasks}
}
