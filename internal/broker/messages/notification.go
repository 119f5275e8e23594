package messages

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	TemplateTrackingCreated      = "tracking_created"
	TemplateTrackingStatus       = "tracking_status"
	TemplateShipmentConfirmation = "shipment_confirmation"
	TemplateShipmentAdmin        = "shipment_admin"
	TemplateShipmentStatus       = "shipment_status"
	TemplateContactConfirmation  = "contact_confirmation"
	TemplateContactAdmin         = "contact_admin"
)

var Templates = []string{
	TemplateTrackingCreated,
	TemplateTrackingStatus,
	TemplateShipmentConfirmation,
	TemplateShipmentAdmin,
	TemplateShipmentStatus,
	TemplateContactConfirmation,
	TemplateContactAdmin,
}

// Notification is a request to send one templated email. ID doubles as the
// idempotency key on the worker side.
type Notification struct {
	ID        string         `json:"id"`
	Template  string         `json:"template"`
	To        string         `json:"to"`
	Subject   string         `json:"subject"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewNotification(template, to, subject string, data map[string]any, now time.Time) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Template:  template,
		To:        to,
		Subject:   subject,
		Data:      data,
		CreatedAt: now.UTC(),
	}
}

func (n Notification) Validate() error {
	if _, err := uuid.Parse(n.ID); err != nil {
		return errors.Wrap(err, "notification id")
	}
	if n.To == "" {
		return errors.New("notification recipient is empty")
	}
	for _, t := range Templates {
		if t == n.Template {
			return nil
		}
	}
	return errors.Errorf("unknown notification template %q", n.Template)
}
