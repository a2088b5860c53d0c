package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types.
const (
	NotificationApproval  = "APPROVAL"
	NotificationRejection = "REJECTION"
	NotificationSecurity  = "SECURITY"
	NotificationInfo      = "INFO"
)

// Notification is an in-app message created by workflow decisions.
type Notification struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Type            string    `json:"type"`
	IsRead          bool      `json:"is_read"`
	RelatedObjectID string    `json:"related_object_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
