package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"teampulse/internal/dispatch"
	"teampulse/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")

	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskAlreadyDone = errors.New("task already done")
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidAction   = errors.New("invalid transition action")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrForbidden       = errors.New("operation not allowed for this role")

	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("no open clock-in")

	ErrInvalidPresenceStatus = errors.New("invalid presence status")

	ErrInsufficientPoints = errors.New("insufficient points")
	ErrZeroAdjustment     = errors.New("adjustment delta must be non-zero")

	ErrExtensionNotFound       = errors.New("extension request not found")
	ErrExtensionAlreadyDecided = errors.New("extension request already decided")
	ErrExtensionValidation     = errors.New("extension request is missing a reason or date")

	ErrNotificationNotFound = errors.New("notification not found")
)

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register creates a user with the member role, a session with
	// the given fingerprint and a fresh JWT token pair, and fans a
	// member_joined notification out to supervisors and admins.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params RegisterParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	// GetSessionUser loads the session's owner together with the
	// fingerprint the auth middleware verifies on every request.
	GetSessionUser(ctx context.Context, sessionID string) (*SessionUser, error)
}

type SessionUser struct {
	User        *models.User
	Fingerprint string
}

type TaskService interface {
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)
	GetTask(ctx context.Context, taskID string) (*models.Task, error)
	ListProjectTasks(ctx context.Context, projectID string, offset, limit uint32) ([]*models.Task, error)
	ListAssignedTasks(ctx context.Context, userID string, offset, limit uint32) ([]*models.Task, error)

	// AssignTask sets the assignee and optionally priority and due
	// date. Supervisor or admin only; the caller's role is checked
	// by the delivery layer, the acting user is recorded here.
	AssignTask(ctx context.Context, params AssignTaskParams) (*models.Task, error)

	// Transition executes start, pause or complete for the acting
	// user. The status update, the points credit (on completion of
	// a task with positive points), the balance cache update and
	// the time log append run in one transaction; either all of
	// them land or none do.
	//
	// It returns ErrTaskAlreadyDone when the task was completed by
	// a concurrent session; no second credit is appended.
	Transition(ctx context.Context, params TransitionParams) (*TransitionResult, error)

	// TaskProject resolves the dependent lookup chain used by
	// notification routing: task to project, project to name.
	TaskProject(ctx context.Context, taskID string) (projectID, projectName, taskType string, err error)

	// MarkOverdue flips unfinished tasks whose due date has passed
	// to the overdue status, returning how many were touched.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)

	// ListDueSoon returns unfinished tasks due within the horizon.
	ListDueSoon(ctx context.Context, now time.Time, horizon time.Duration) ([]*models.Task, error)
}

type PointsService interface {
	// Balance reads the materialized balance cache for the user.
	// A missing cache row is a zero balance.
	Balance(ctx context.Context, userID string) (int64, error)

	History(ctx context.Context, userID string, offset, limit uint32) ([]*models.LedgerEntry, error)

	// Redeem debits the user for a rewards-shop purchase. The
	// balance check and the append run in the same transaction;
	// it returns ErrInsufficientPoints when the ledger sum is
	// smaller than the cost.
	Redeem(ctx context.Context, params RedeemParams) (*models.LedgerEntry, error)

	// Adjust appends a manual correction entry for a user. Admin
	// and supervisor only; the caller's role is checked by the
	// delivery layer. The delta may be negative and is allowed to
	// take the balance below zero.
	Adjust(ctx context.Context, params AdjustParams) (*models.LedgerEntry, error)

	// Reconcile recomputes every user's ledger sum and repairs
	// cache rows that drifted, returning the number of repairs.
	Reconcile(ctx context.Context) (int, error)
}

type PresenceService interface {
	// Heartbeat upserts the user's presence row, overwriting
	// whatever is stored (last write wins across tabs).
	Heartbeat(ctx context.Context, userID string, taskID *string) error

	// SetStatus writes an explicit status immediately.
	SetStatus(ctx context.Context, userID, status string) error

	// WriteStatus persists a status change decided by the
	// tracker state machine.
	WriteStatus(ctx context.Context, userID, status string) error

	// TeamPresence derives the display status of every user from
	// today's attendance and the stored presence hints. Failed
	// hint reads degrade the affected users to offline without
	// failing the listing.
	TeamPresence(ctx context.Context) ([]*TeamPresenceEntry, error)

	// DemoteStale flips stored online rows whose last update is
	// older than the idle threshold to idle, returning how many
	// rows changed. Rows orphaned by a crashed or restarted
	// server get demoted here instead of by the in-process
	// tracker that died with it.
	DemoteStale(ctx context.Context, now time.Time) (int64, error)
}

type AttendanceService interface {
	ClockIn(ctx context.Context, userID string) (*models.AttendanceRecord, error)
	ClockOut(ctx context.Context, userID string) (*models.AttendanceRecord, error)
}

type ExtensionService interface {
	// Request validates before writing: an empty reason or a zero
	// requested date fails with ErrExtensionValidation and nothing
	// is persisted.
	Request(ctx context.Context, params ExtensionRequestParams) (*models.ExtensionRequest, error)

	// Decide approves or rejects a pending request. Approving also
	// moves the task's due date in the same transaction. The
	// requester is notified either way.
	Decide(ctx context.Context, params ExtensionDecisionParams) (*models.ExtensionRequest, error)

	ListPending(ctx context.Context, offset, limit uint32) ([]*models.ExtensionRequest, error)
}

type NotificationService interface {
	Create(ctx context.Context, params CreateNotificationParams) (*models.Notification, error)
	List(ctx context.Context, userID string, offset, limit uint32) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	Delete(ctx context.Context, notificationID, userID string) error

	// Route resolves the in-app destination for a notification
	// owned by the user, falling back to the role default view
	// when the type is unknown or a lookup fails.
	Route(ctx context.Context, notificationID, userID, role string) (dispatch.Destination, error)
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type RegisterParams struct {
	Email       string
	Password    string
	DisplayName string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	Role                  string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type CreateTaskParams struct {
	ProjectID   string
	Title       string
	Description string
	Priority    string
	TaskType    string
	DueDate     *time.Time
	AssigneeID  *string
	Points      int64
	ActorID     string
}

type AssignTaskParams struct {
	TaskID     string
	AssigneeID string
	Priority   *string
	DueDate    *time.Time
	ActorID    string
}

type TransitionParams struct {
	TaskID    string
	UserID    string
	ActorRole string
	Action    string
}

type TransitionResult struct {
	Task          *models.Task
	CreditedDelta int64
}

type RedeemParams struct {
	UserID string
	Cost   int64
	Reward string
}

type AdjustParams struct {
	UserID  string
	Delta   int64
	ActorID string
}

type TeamPresenceEntry struct {
	UserID      string
	DisplayName string
	Status      string
	TaskID      *string
}

type ExtensionRequestParams struct {
	TaskID       string
	RequesterID  string
	RequestedDue time.Time
	Reason       string
}

type ExtensionDecisionParams struct {
	RequestID string
	DeciderID string
	Approve   bool
}

type CreateNotificationParams struct {
	UserID  string
	Type    string
	Payload any
}
