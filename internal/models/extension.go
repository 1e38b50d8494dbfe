package models

import "time"

const (
	ExtensionPending  = "pending"
	ExtensionApproved = "approved"
	ExtensionRejected = "rejected"
)

type ExtensionRequest struct {
	ID           string
	TaskID       string
	RequesterID  string
	RequestedDue time.Time
	Reason       string
	Status       string
	DeciderID    *string
	DecidedAt    *time.Time
	CreatedAt    time.Time
}
