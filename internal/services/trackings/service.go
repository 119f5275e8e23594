package trackings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/CargoTrack/internal/broker/messages"
	"github.com/BearBump/CargoTrack/internal/cache"
	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/BearBump/CargoTrack/internal/services/notify"
	"github.com/BearBump/CargoTrack/internal/services/refnum"
	"github.com/BearBump/CargoTrack/pkg/logger"
	"github.com/BearBump/CargoTrack/pkg/metrics"
	"github.com/pkg/errors"
)

// maxNumberAttempts bounds regeneration of a tracking number that collided
// with a concurrent create.
const maxNumberAttempts = 3

type Repository interface {
	CreateTracking(ctx context.Context, t *models.Tracking) error
	ListTrackings(ctx context.Context) ([]*models.Tracking, error)
	CountTrackings(ctx context.Context) (int64, error)
	GetTrackingByNumber(ctx context.Context, number string) (*models.Tracking, error)
	GetTrackingByID(ctx context.Context, id string) (*models.Tracking, error)
	UpdateTracking(ctx context.Context, id string, patch *models.TrackingPatch, now time.Time) (*models.Tracking, error)
	DeleteTracking(ctx context.Context, id string) (*models.Tracking, error)
}

type Service struct {
	repo       Repository
	cache      cache.BytesCache
	ttl        time.Duration
	normalizer *Normalizer
	notifier   notify.Notifier
	log        logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func New(repo Repository, c cache.BytesCache, ttl time.Duration, n notify.Notifier, log logger.Logger, m *metrics.Metrics) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	s := &Service{
		repo:     repo,
		cache:    c,
		ttl:      ttl,
		notifier: n,
		log:      log,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.normalizer = NewNormalizer(func() time.Time { return s.now() })
	return s
}

// WithClock replaces the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

func (s *Service) normalize(input map[string]any, mode Mode) (*models.TrackingPatch, error) {
	p, err := s.normalizer.Normalize(input, mode)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			s.metrics.ValidationFailures.WithLabelValues(string(ve.Kind)).Inc()
		}
		return nil, err
	}
	return p, nil
}

// Create validates input and stores a new tracking. Without an explicit
// trackingNumber one is generated; a generated number that collides is
// regenerated, a caller-supplied one that collides is a conflict.
func (s *Service) Create(ctx context.Context, input map[string]any) (*models.Tracking, error) {
	patch, err := s.normalize(input, ModeCreate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	t := &models.Tracking{CreatedAt: now, UpdatedAt: now}
	patch.Apply(t)

	if patch.TrackingNumber != nil {
		if err := s.repo.CreateTracking(ctx, t); err != nil {
			if errors.Is(err, models.ErrDuplicateKey) {
				return nil, ErrDuplicateTrackingNumber
			}
			return nil, err
		}
	} else if err := s.createWithGeneratedNumber(ctx, t); err != nil {
		return nil, err
	}

	s.log.Info("tracking created", "id", t.ID, "tracking_number", t.TrackingNumber)
	s.notifyParties(ctx, t, messages.TemplateTrackingCreated,
		"Your shipment tracking number: "+t.TrackingNumber, trackingData(t, ""))
	return t, nil
}

func (s *Service) createWithGeneratedNumber(ctx context.Context, t *models.Tracking) error {
	for attempt := 1; ; attempt++ {
		count, err := s.repo.CountTrackings(ctx)
		if err != nil {
			return err
		}
		t.TrackingNumber = refnum.Tracking(s.now(), count)

		err = s.repo.CreateTracking(ctx, t)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrDuplicateKey) {
			return err
		}
		// два параллельных create могли посчитать одинаковый номер
		s.log.Warn("generated tracking number collided", "tracking_number", t.TrackingNumber, "attempt", attempt)
		if attempt >= maxNumberAttempts {
			return errors.Wrap(ErrDuplicateTrackingNumber, "allocate tracking number")
		}
	}
}

func (s *Service) List(ctx context.Context) ([]*models.Tracking, error) {
	return s.repo.ListTrackings(ctx)
}

// GetByNumber reads through the cache. Cache failures only cost a store read.
func (s *Service) GetByNumber(ctx context.Context, number string) (*models.Tracking, error) {
	key := numberKey(number)
	if s.cacheEnabled() {
		b, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.metrics.CacheLookups.WithLabelValues("error").Inc()
			s.log.Warn("tracking cache get", "key", key, "err", err)
		case ok:
			var t models.Tracking
			if json.Unmarshal(b, &t) == nil {
				s.metrics.CacheLookups.WithLabelValues("hit").Inc()
				return &t, nil
			}
			s.metrics.CacheLookups.WithLabelValues("corrupt").Inc()
		default:
			s.metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	t, err := s.repo.GetTrackingByNumber(ctx, number)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrTrackingNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled() {
		if b, err := json.Marshal(t); err == nil {
			_ = s.cache.Set(ctx, key, b, s.ttl)
		}
	}
	return t, nil
}

// Update applies a partial update. Omitted fields keep their values and the
// tracking number can not be changed.
func (s *Service) Update(ctx context.Context, id string, input map[string]any) (*models.Tracking, error) {
	if !models.ValidID(id) {
		return nil, ErrTrackingNotFound
	}
	patch, err := s.normalize(input, ModeUpdate)
	if err != nil {
		return nil, err
	}

	old, err := s.repo.GetTrackingByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrTrackingNotFound
	}
	if err != nil {
		return nil, err
	}

	if patch.TrackingNumber != nil {
		if *patch.TrackingNumber != old.TrackingNumber {
			ve := invalid(KindInvalidTrackingNumber, "trackingNumber", "trackingNumber cannot be changed")
			s.metrics.ValidationFailures.WithLabelValues(string(ve.Kind)).Inc()
			return nil, ve
		}
		patch.TrackingNumber = nil
	}

	updated, err := s.repo.UpdateTracking(ctx, id, patch, s.now())
	switch {
	case errors.Is(err, models.ErrNotFound):
		return nil, ErrTrackingNotFound
	case errors.Is(err, models.ErrDuplicateKey):
		return nil, ErrDuplicateTrackingNumber
	case err != nil:
		return nil, err
	}

	s.invalidate(ctx, updated.TrackingNumber)

	if updated.Status != old.Status {
		s.log.Info("tracking status changed", "id", id, "from", old.Status, "to", updated.Status)
		s.notifyParties(ctx, updated, messages.TemplateTrackingStatus,
			"Shipment "+updated.TrackingNumber+" is now "+updated.Status, trackingData(updated, old.Status))
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) (*models.Tracking, error) {
	if !models.ValidID(id) {
		return nil, ErrTrackingNotFound
	}
	t, err := s.repo.DeleteTracking(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrTrackingNotFound
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, t.TrackingNumber)
	s.log.Info("tracking deleted", "id", id, "tracking_number", t.TrackingNumber)
	return t, nil
}

func (s *Service) invalidate(ctx context.Context, number string) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.Del(ctx, numberKey(number)); err != nil {
		s.log.Warn("tracking cache invalidate", "tracking_number", number, "err", err)
	}
}

func (s *Service) notifyParties(ctx context.Context, t *models.Tracking, template, subject string, data map[string]any) {
	seen := map[string]struct{}{}
	for _, p := range []*models.Party{t.Receiver, t.Sender} {
		if p == nil || p.Email == nil || *p.Email == "" {
			continue
		}
		if _, dup := seen[*p.Email]; dup {
			continue
		}
		seen[*p.Email] = struct{}{}
		s.notifier.Notify(ctx, messages.NewNotification(template, *p.Email, subject, data, s.now()))
	}
}

func trackingData(t *models.Tracking, previousStatus string) map[string]any {
	d := map[string]any{
		"trackingNumber": t.TrackingNumber,
		"status":         t.Status,
		"progress":       t.Progress,
	}
	if previousStatus != "" {
		d["previousStatus"] = previousStatus
	}
	if t.CurrentLocation != nil {
		d["currentLocation"] = *t.CurrentLocation
	}
	if t.ProductName != nil {
		d["productName"] = *t.ProductName
	}
	if t.EstimatedDelivery != nil {
		d["estimatedDelivery"] = t.EstimatedDelivery.UTC().Format(time.RFC3339)
	}
	if t.Receiver != nil && t.Receiver.Name != nil {
		d["receiverName"] = *t.Receiver.Name
	}
	return d
}

func numberKey(number string) string {
	return "tracking:number:" + number
}
