package contacts

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/BearBump/CargoTrack/internal/broker/messages"
	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/BearBump/CargoTrack/internal/services/notify"
	"github.com/BearBump/CargoTrack/pkg/logger"
	"github.com/pkg/errors"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError reports the first field of a contact payload that failed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

var (
	ErrInvalidID       = errors.New("invalid contact id")
	ErrContactNotFound = errors.New("contact not found")
)

type Repository interface {
	CreateContact(ctx context.Context, c *models.Contact) error
	ListContacts(ctx context.Context) ([]*models.Contact, error)
	GetContactByID(ctx context.Context, id string) (*models.Contact, error)
	ReplaceContact(ctx context.Context, c *models.Contact) error
	DeleteContact(ctx context.Context, id string) (*models.Contact, error)
}

type Service struct {
	repo       Repository
	notifier   notify.Notifier
	adminEmail string
	log        logger.Logger
	now        func() time.Time
}

func New(repo Repository, n notify.Notifier, adminEmail string, log logger.Logger) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	return &Service{
		repo:       repo,
		notifier:   n,
		adminEmail: adminEmail,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create stores a contact-form message and emails a confirmation to the
// sender plus a copy to the admin.
func (s *Service) Create(ctx context.Context, input map[string]any) (*models.Contact, error) {
	if len(input) == 0 {
		return nil, &ValidationError{Reason: "request body is required"}
	}
	now := s.now()
	c := &models.Contact{
		PreferredContactMethod: "email",
		Status:                 models.ContactStatusNew,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := applyInput(c, input, false); err != nil {
		return nil, err
	}
	if err := s.repo.CreateContact(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("contact created", "id", c.ID)

	data := contactData(c)
	s.notifier.Notify(ctx, messages.NewNotification(messages.TemplateContactConfirmation, c.Email,
		"We've Received Your Message", data, now))
	if s.adminEmail != "" {
		s.notifier.Notify(ctx, messages.NewNotification(messages.TemplateContactAdmin, s.adminEmail,
			"New Contact Submission from "+c.FullName, data, now))
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Contact, error) {
	return s.repo.ListContacts(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Contact, error) {
	if !models.ValidID(id) {
		return nil, ErrInvalidID
	}
	c, err := s.repo.GetContactByID(ctx, id)
	return c, notFound(err)
}

func (s *Service) Update(ctx context.Context, id string, input map[string]any) (*models.Contact, error) {
	if !models.ValidID(id) {
		return nil, ErrInvalidID
	}
	if len(input) == 0 {
		return nil, &ValidationError{Reason: "request body is required"}
	}
	c, err := s.repo.GetContactByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := applyInput(c, input, true); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()
	if err := s.repo.ReplaceContact(ctx, c); err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*models.Contact, error) {
	if !models.ValidID(id) {
		return nil, ErrInvalidID
	}
	if !oneOf(models.ContactStatuses, status) {
		return nil, &ValidationError{Field: "status", Reason: statusReason}
	}
	c, err := s.repo.GetContactByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	c.Status = status
	c.UpdatedAt = s.now()
	if err := s.repo.ReplaceContact(ctx, c); err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) (*models.Contact, error) {
	if !models.ValidID(id) {
		return nil, ErrInvalidID
	}
	c, err := s.repo.DeleteContact(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	s.log.Info("contact deleted", "id", id)
	return c, nil
}

var statusReason = "valid status is required (" + strings.Join(models.ContactStatuses, ", ") + ")"

func applyInput(c *models.Contact, input map[string]any, partial bool) error {
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"fullName", &c.FullName},
		{"email", &c.Email},
		{"phone", &c.Phone},
		{"message", &c.Message},
	} {
		v, ok := input[f.key]
		if !ok || v == nil {
			if partial {
				continue
			}
			return &ValidationError{Field: f.key, Reason: "fullName, email, phone and message are required"}
		}
		s, isStr := v.(string)
		s = strings.TrimSpace(s)
		if !isStr || s == "" {
			return &ValidationError{Field: f.key, Reason: f.key + " must be a non-empty string"}
		}
		if f.key == "email" && !emailRe.MatchString(s) {
			return &ValidationError{Field: "email", Reason: "email is invalid"}
		}
		*f.dst = s
	}

	if v, ok := input["company"]; ok && v != nil {
		s, isStr := v.(string)
		if !isStr {
			return &ValidationError{Field: "company", Reason: "company must be a string"}
		}
		s = strings.TrimSpace(s)
		c.Company = &s
	}

	if v, ok := input["preferredContactMethod"]; ok && v != nil {
		s, isStr := v.(string)
		if !isStr || !oneOf(models.ContactMethods, s) {
			return &ValidationError{Field: "preferredContactMethod", Reason: "preferredContactMethod must be email or phone"}
		}
		c.PreferredContactMethod = s
	}

	if partial {
		if v, ok := input["status"]; ok && v != nil {
			s, isStr := v.(string)
			if !isStr || !oneOf(models.ContactStatuses, s) {
				return &ValidationError{Field: "status", Reason: statusReason}
			}
			c.Status = s
		}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return ErrContactNotFound
	}
	return err
}

func oneOf(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func contactData(c *models.Contact) map[string]any {
	d := map[string]any{
		"fullName":               c.FullName,
		"email":                  c.Email,
		"phone":                  c.Phone,
		"preferredContactMethod": c.PreferredContactMethod,
		"message":                c.Message,
	}
	if c.Company != nil && *c.Company != "" {
		d["company"] = *c.Company
	}
	return d
}
