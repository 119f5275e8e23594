package cargo_api

import (
	"context"
	"net/http"
	"time"

	"github.com/BearBump/CargoTrack/internal/cache/rediscache"
	"github.com/BearBump/CargoTrack/internal/services/contacts"
	"github.com/BearBump/CargoTrack/internal/services/shipments"
	"github.com/BearBump/CargoTrack/internal/services/trackings"
	"github.com/BearBump/CargoTrack/pkg/logger"
	"github.com/BearBump/CargoTrack/pkg/metrics"
	"github.com/go-chi/chi/v5"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (rediscache.Decision, error)
}

// CargoAPI is the REST surface for trackings, shipments and contact messages.
type CargoAPI struct {
	trackings *trackings.Service
	shipments *shipments.Service
	contacts  *contacts.Service

	limiter      RateLimiter
	formsPerMin  int64
	maxBodyBytes int64

	log     logger.Logger
	metrics *metrics.Metrics
}

func New(t *trackings.Service, s *shipments.Service, c *contacts.Service, log logger.Logger, m *metrics.Metrics) *CargoAPI {
	return &CargoAPI{
		trackings:    t,
		shipments:    s,
		contacts:     c,
		maxBodyBytes: 1 << 20,
		log:          log,
		metrics:      m,
	}
}

// WithFormRateLimit caps public form submissions per client IP and minute.
// A nil limiter or a non-positive limit turns the cap off.
func (a *CargoAPI) WithFormRateLimit(rl RateLimiter, perMinute int64) *CargoAPI {
	a.limiter = rl
	a.formsPerMin = perMinute
	return a
}

// Routes returns a router meant to be mounted under the API prefix.
func (a *CargoAPI) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(a.instrument)

	r.Route("/tracking", func(r chi.Router) {
		r.Post("/", a.createTracking)
		r.Get("/", a.listTrackings)
		r.Get("/getalltracking", a.listTrackings)
		r.Get("/{trackingNumber}", a.getTracking)
		r.Put("/{id}", a.updateTracking)
		r.Delete("/{id}", a.deleteTracking)
	})

	r.Route("/shipments", func(r chi.Router) {
		r.With(a.formLimit("shipments")).Post("/", a.createShipment)
		r.Get("/", a.listShipments)
		r.Get("/track/{shipmentNumber}", a.trackShipment)
		r.Get("/{id}", a.getShipment)
		r.Put("/{id}", a.updateShipment)
		r.Patch("/{id}/status", a.updateShipmentStatus)
		r.Delete("/{id}", a.deleteShipment)
	})

	r.Route("/contact", func(r chi.Router) {
		r.With(a.formLimit("contact")).Post("/", a.createContact)
		r.Get("/", a.listContacts)
		r.Get("/getallcontacts", a.listContacts)
		r.Get("/{id}", a.getContact)
		r.Put("/{id}", a.updateContact)
		r.Patch("/{id}/status", a.updateContactStatus)
		r.Delete("/{id}", a.deleteContact)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		a.writeJSON(w, http.StatusNotFound, envelope{Message: "Route not found"})
	})
	return r
}
