package shipments

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/BearBump/CargoTrack/internal/broker/messages"
	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/BearBump/CargoTrack/internal/services/notify"
	"github.com/BearBump/CargoTrack/internal/services/refnum"
	"github.com/BearBump/CargoTrack/pkg/logger"
	"github.com/pkg/errors"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	maxNumberAttempts = 3
)

type Repository interface {
	CreateShipment(ctx context.Context, sh *models.Shipment) error
	CountShipments(ctx context.Context) (int64, error)
	ListShipments(ctx context.Context, f models.ShipmentFilter) ([]*models.Shipment, int64, error)
	GetShipmentByID(ctx context.Context, id string) (*models.Shipment, error)
	GetShipmentByNumber(ctx context.Context, number string) (*models.Shipment, error)
	ReplaceShipment(ctx context.Context, sh *models.Shipment) error
	DeleteShipment(ctx context.Context, id string) (*models.Shipment, error)
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

// Create stores a shipment request with a freshly allocated shipment number
// and an estimated cost, then emails the customer and the admin.
func (s *Service) Create(ctx context.Context, input map[string]any) (*models.Shipment, error) {
	if len(input) == 0 {
		return nil, invalid("", "request body is required")
	}
	now := s.now()
	sh := &models.Shipment{
		Status:    models.ShipmentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyInput(sh, input, false); err != nil {
		return nil, err
	}
	sh.EstimatedCost = EstimateCost(sh.Weight, sh.Dimensions, sh.Origin, sh.Destination)

	for attempt := 1; ; attempt++ {
		count, err := s.repo.CountShipments(ctx)
		if err != nil {
			return nil, err
		}
		sh.ShipmentNumber = refnum.Shipment(s.now(), count)

		err = s.repo.CreateShipment(ctx, sh)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrDuplicateKey) {
			return nil, err
		}
		if attempt >= maxNumberAttempts {
			return nil, ErrDuplicateShipmentNumber
		}
		sh.ID = ""
	}

	s.log.Info("shipment created", "id", sh.ID, "shipment_number", sh.ShipmentNumber, "estimated_cost", sh.EstimatedCost)

	data := shipmentData(sh)
	s.notifier.Notify(ctx, messages.NewNotification(messages.TemplateShipmentConfirmation, sh.Email,
		"Shipment Request Confirmed - "+sh.ShipmentNumber, data, now))
	if s.adminEmail != "" {
		s.notifier.Notify(ctx, messages.NewNotification(messages.TemplateShipmentAdmin, s.adminEmail,
			"New Shipment Request - "+sh.ShipmentNumber, data, now))
	}
	return sh, nil
}

// List returns one page of shipments and the pagination block for it.
func (s *Service) List(ctx context.Context, f models.ShipmentFilter) ([]*models.Shipment, models.Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}

	items, total, err := s.repo.ListShipments(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return items, models.Pagination{
		Current: f.Page,
		Pages:   int(math.Ceil(float64(total) / float64(f.Limit))),
		Total:   total,
		Limit:   f.Limit,
	}, nil
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*models.Shipment, error) {
	sh, err := s.repo.GetShipmentByNumber(ctx, number)
	return sh, notFound(err)
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Shipment, error) {
	if !models.ValidID(id) {
		return nil, ErrInvalidID
	}
	sh, err := s.repo.GetShipmentByID(ctx, id)
	return sh, notFound(err)
}

// Update re-validates the merged record; the estimated cost follows any
// change of weight, dimensions or route.
func (s *Service) Update(ctx context.Context, id string, input map[string]any) (*models.Shipment, error) {
	if !models.ValidID(id) {
		return nil, ErrInvalidID
	}
	if len(input) == 0 {
		return nil, invalid("", "request body is required")
	}
	sh, err := s.repo.GetShipmentByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if err := applyInput(sh, input, true); err != nil {
		return nil, err
	}
	sh.EstimatedCost = EstimateCost(sh.Weight, sh.Dimensions, sh.Origin, sh.Destination)
	sh.UpdatedAt = s.now()

	if err := s.repo.ReplaceShipment(ctx, sh); err != nil {
		return nil, notFound(err)
	}
	return sh, nil
}

// UpdateStatus moves a shipment to status and emails the customer.
func (s *Service) UpdateStatus(ctx context.Context, id, status string, notes *string) (*models.Shipment, error) {
	if !models.ValidID(id) {
		return nil, ErrInvalidID
	}
	if !oneOf(models.ShipmentStatuses, status) {
		return nil, invalid("status", statusReason)
	}
	sh, err := s.repo.GetShipmentByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	prev := sh.Status
	sh.Status = status
	if notes != nil {
		sh.Notes = notes
	}
	sh.UpdatedAt = s.now()
	if err := s.repo.ReplaceShipment(ctx, sh); err != nil {
		return nil, notFound(err)
	}

	s.log.Info("shipment status updated", "id", id, "from", prev, "to", status)
	s.notifier.Notify(ctx, messages.NewNotification(messages.TemplateShipmentStatus, sh.Email,
		"Shipment Status Update - "+sh.ShipmentNumber, shipmentData(sh), s.now()))
	return sh, nil
}

func (s *Service) Delete(ctx context.Context, id string) (*models.Shipment, error) {
	if !models.ValidID(id) {
		return nil, ErrInvalidID
	}
	sh, err := s.repo.DeleteShipment(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	s.log.Info("shipment deleted", "id", id, "shipment_number", sh.ShipmentNumber)
	return sh, nil
}

func notFound(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return ErrShipmentNotFound
	}
	return err
}

func shipmentData(sh *models.Shipment) map[string]any {
	d := map[string]any{
		"shipmentNumber":    sh.ShipmentNumber,
		"fullName":          sh.FullName,
		"email":             sh.Email,
		"phone":             sh.Phone,
		"origin":            sh.Origin,
		"destination":       sh.Destination,
		"cargoType":         sh.CargoType,
		"weight":            fmt.Sprint(sh.Weight),
		"length":            fmt.Sprint(sh.Dimensions.Length),
		"width":             fmt.Sprint(sh.Dimensions.Width),
		"height":            fmt.Sprint(sh.Dimensions.Height),
		"preferredShipDate": sh.PreferredShipDate.UTC().Format(time.RFC3339),
		"estimatedCost":     sh.EstimatedCost,
		"status":            sh.Status,
	}
	if sh.Company != nil {
		d["company"] = *sh.Company
	}
	if sh.Notes != nil && *sh.Notes != "" {
		d["notes"] = *sh.Notes
	}
	return d
}
