package review

import (
	"time"

	"abportal/internal/certificate/models"
	id "abportal/pkg/domain"
)

// Kind selects how the presentation layer styles a notification.
type Kind string

const (
	KindSuccess     Kind = "success"
	KindDestructive Kind = "destructive"
)

// Notification is the user-facing message emitted after an applied decision.
type Notification struct {
	Kind    Kind
	Title   string
	Message string

	CertificateID string
	LearnerName   string
	Decision      models.Status
	SessionID     id.SessionID
	ReviewerID    id.UserID
	At            time.Time
}
