package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"teampulse/internal/models"
)

type fakeTaskLookup struct {
	projectID   string
	projectName string
	taskType    string
	err         error
}

func (l *fakeTaskLookup) TaskProject(context.Context, string) (string, string, string, error) {
	return l.projectID, l.projectName, l.taskType, l.err
}

func TestResolveExtensionTypes(t *testing.T) {
	t.Parallel()

	router := NewRouter(zerolog.Nop(), &fakeTaskLookup{})

	tests := []struct {
		notificationType string
		wantView         string
		wantStatus       string
	}{
		{models.NotificationExtensionRequested, ViewPendingExtensions, ""},
		{models.NotificationExtensionApproved, ViewExtensions, models.ExtensionApproved},
		{models.NotificationExtensionRejected, ViewExtensions, models.ExtensionRejected},
	}

	for _, tt := range tests {
		t.Run(tt.notificationType, func(t *testing.T) {
			t.Parallel()

			destination := router.Resolve(context.Background(), &models.Notification{
				Type: tt.notificationType,
			}, models.RoleMember)
			if destination.View != tt.wantView {
				t.Errorf("got view %q, want %q", destination.View, tt.wantView)
			}
			if tt.wantStatus != "" && destination.Params["status"] != tt.wantStatus {
				t.Errorf("got status param %q, want %q", destination.Params["status"], tt.wantStatus)
			}
		})
	}
}

func TestResolveTaskAssigned(t *testing.T) {
	t.Parallel()

	lookup := &fakeTaskLookup{
		projectID:   "p1",
		projectName: "Atlas",
		taskType:    models.TaskTypeTask,
	}
	router := NewRouter(zerolog.Nop(), lookup)

	destination := router.Resolve(context.Background(), &models.Notification{
		Type:    models.NotificationTaskAssigned,
		Payload: []byte(`{"task_id":"t1"}`),
	}, models.RoleMember)

	if destination.View != ViewProjectTasks {
		t.Fatalf("got view %q, want %q", destination.View, ViewProjectTasks)
	}
	want := map[string]string{
		"project_id":   "p1",
		"project_name": "Atlas",
		"tab":          TabTasks,
		"task_id":      "t1",
	}
	for key, value := range want {
		if destination.Params[key] != value {
			t.Errorf("param %q = %q, want %q", key, destination.Params[key], value)
		}
	}
}

func TestResolveAssignmentOpensAssignmentsTab(t *testing.T) {
	t.Parallel()

	lookup := &fakeTaskLookup{
		projectID:   "p1",
		projectName: "Atlas",
		taskType:    models.TaskTypeAssignment,
	}
	router := NewRouter(zerolog.Nop(), lookup)

	destination := router.Resolve(context.Background(), &models.Notification{
		Type:    models.NotificationTaskDueReminder,
		Payload: []byte(`{"task_id":"t1"}`),
	}, models.RoleMember)

	if destination.Params["tab"] != TabAssignments {
		t.Errorf("got tab %q, want %q", destination.Params["tab"], TabAssignments)
	}
}

func TestResolveLookupFailureFallsBack(t *testing.T) {
	t.Parallel()

	lookup := &fakeTaskLookup{err: errors.New("task deleted")}
	router := NewRouter(zerolog.Nop(), lookup)

	notification := &models.Notification{
		Type:    models.NotificationTaskAssigned,
		Payload: []byte(`{"task_id":"t1"}`),
	}

	if destination := router.Resolve(context.Background(), notification, models.RoleMember); destination.View != ViewMyTasks {
		t.Errorf("member fallback view = %q, want %q", destination.View, ViewMyTasks)
	}
	if destination := router.Resolve(context.Background(), notification, models.RoleSupervisor); destination.View != ViewTeamDashboard {
		t.Errorf("supervisor fallback view = %q, want %q", destination.View, ViewTeamDashboard)
	}
}

func TestResolveMissingTaskIDFallsBack(t *testing.T) {
	t.Parallel()

	router := NewRouter(zerolog.Nop(), &fakeTaskLookup{projectID: "p1"})

	destination := router.Resolve(context.Background(), &models.Notification{
		Type:    models.NotificationTaskAssigned,
		Payload: []byte(`{}`),
	}, models.RoleMember)

	if destination.View != ViewMyTasks {
		t.Errorf("got view %q, want %q", destination.View, ViewMyTasks)
	}
}

func TestResolveUnknownTypeFallsBack(t *testing.T) {
	t.Parallel()

	router := NewRouter(zerolog.Nop(), &fakeTaskLookup{})

	destination := router.Resolve(context.Background(), &models.Notification{
		Type: "release_notes",
	}, models.RoleAdmin)

	if destination.View != ViewTeamDashboard {
		t.Errorf("got view %q, want %q", destination.View, ViewTeamDashboard)
	}
}

func TestResolvePointsAndMemberJoined(t *testing.T) {
	t.Parallel()

	router := NewRouter(zerolog.Nop(), &fakeTaskLookup{})

	if destination := router.Resolve(context.Background(), &models.Notification{
		Type: models.NotificationPointsEarned,
	}, models.RoleMember); destination.View != ViewRewardsShop {
		t.Errorf("points earned view = %q, want %q", destination.View, ViewRewardsShop)
	}
	if destination := router.Resolve(context.Background(), &models.Notification{
		Type: models.NotificationMemberJoined,
	}, models.RoleSupervisor); destination.View != ViewTeam {
		t.Errorf("member joined view = %q, want %q", destination.View, ViewTeam)
	}
}
