package notification

import (
	"context"

	"github.com/google/uuid"
)

type Type string

const (
	TypeRegistration      Type = "registration"
	TypeDocument          Type = "document"
	TypeMedicalLeave      Type = "medical_leave"
	TypeProfileChange     Type = "profile_change"
	TypeSportRegistration Type = "sport_registration"
)

// Notification is a user-facing message emitted after a workflow commits.
type Notification struct {
	UserID    uuid.UUID `json:"user_id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	ActionURL string    `json:"action_url,omitempty"`
}

// Sink delivers notifications. Delivery is best effort and never part of the
// workflow's transaction.
type Sink interface {
	Send(ctx context.Context, batch []Notification) error
}
