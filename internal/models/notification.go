package models

import "time"

const (
	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
)

// Notification is one outbound email in the delivery log.
type Notification struct {
	ID         string
	Template   string
	Recipient  string
	Subject    string
	DataJSON   []byte
	Status     string
	Attempts   int32
	NextSendAt time.Time
	LastError  *string
	ProviderID *string
	SentAt     *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
