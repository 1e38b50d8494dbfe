package models

import "time"

const (
	NotificationExtensionRequested = "extension_requested"
	NotificationExtensionApproved  = "extension_approved"
	NotificationExtensionRejected  = "extension_rejected"
	NotificationTaskAssigned       = "task_assigned"
	NotificationTaskDueReminder    = "task_due_reminder"
	NotificationPointsEarned       = "points_earned"
	NotificationMemberJoined       = "member_joined"
)

type Notification struct {
	ID        string
	UserID    string
	Type      string
	Payload   []byte
	ReadAt    *time.Time
	CreatedAt time.Time
}

func (n *Notification) Read() bool {
	return n.ReadAt != nil
}
