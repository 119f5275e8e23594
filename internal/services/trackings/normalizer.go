package trackings

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/BearBump/CargoTrack/internal/dateparse"
	"github.com/BearBump/CargoTrack/internal/models"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

var emailRe = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

var stringFields = []struct {
	key string
	dst func(p *models.TrackingPatch) **string
}{
	{"currentLocation", func(p *models.TrackingPatch) **string { return &p.CurrentLocation }},
	{"deliveryLocation", func(p *models.TrackingPatch) **string { return &p.DeliveryLocation }},
	{"productName", func(p *models.TrackingPatch) **string { return &p.ProductName }},
	{"typeOfShipment", func(p *models.TrackingPatch) **string { return &p.TypeOfShipment }},
}

var knownKeys = map[string]struct{}{
	"trackingNumber": {}, "currentLocation": {}, "deliveryLocation": {}, "estimatedDelivery": {},
	"status": {}, "progress": {}, "sender": {}, "receiver": {}, "productName": {},
	"typeOfShipment": {}, "weight": {}, "quantity": {}, "totalFreight": {}, "events": {},
}

// Normalizer validates tracking payloads and turns them into patches.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize checks fields in a fixed order and stops at the first failure.
// A nil value counts as absent. In ModeCreate the result carries defaults for
// status, progress, totalFreight and events; ModeUpdate carries only what the
// input supplied.
func (n *Normalizer) Normalize(input map[string]any, mode Mode) (*models.TrackingPatch, error) {
	if len(input) == 0 {
		return nil, invalid(KindEmptyPayload, "", "request body is required")
	}
	now := dateparse.Canonical(n.now())
	p := &models.TrackingPatch{}

	if v, ok := present(input, "trackingNumber"); ok {
		s, ok := toString(v)
		s = strings.TrimSpace(s)
		switch {
		case !ok:
			return nil, invalid(KindInvalidTrackingNumber, "trackingNumber", "trackingNumber must be a string")
		case s != "":
			p.TrackingNumber = &s
		case mode == ModeUpdate:
			return nil, invalid(KindInvalidTrackingNumber, "trackingNumber", "trackingNumber cannot be empty")
		}
	}

	if v, ok := present(input, "status"); ok {
		s, isStr := v.(string)
		if !isStr || !validStatus(s) {
			return nil, invalid(KindInvalidStatus, "status",
				`status must be one of "Pending", "In Transit", "Delivered"`)
		}
		p.Status = &s
	} else if mode == ModeCreate {
		s := models.TrackingStatusPending
		p.Status = &s
	}

	if v, ok := present(input, "progress"); ok {
		f, ok := toNumber(v)
		if !ok || f < 0 || f > 100 {
			return nil, invalid(KindInvalidProgress, "progress", "progress must be a number between 0 and 100")
		}
		p.Progress = &f
	} else if mode == ModeCreate {
		var zero float64
		p.Progress = &zero
	}

	if v, ok := present(input, "estimatedDelivery"); ok {
		t, ok := dateparse.Parse(v)
		if !ok {
			return nil, invalid(KindInvalidDate, "estimatedDelivery", "estimatedDelivery is not a valid date")
		}
		p.EstimatedDelivery = &t
	}

	var err *ValidationError
	if p.Sender, err = normalizeParty(input, "sender", false); err != nil {
		return nil, err
	}
	if p.Receiver, err = normalizeParty(input, "receiver", true); err != nil {
		return nil, err
	}

	for _, f := range stringFields {
		v, ok := present(input, f.key)
		if !ok {
			continue
		}
		s, ok := toString(v)
		if !ok {
			return nil, invalid(KindInvalidField, f.key, f.key+" must be a string")
		}
		*f.dst(p) = &s
	}

	if v, ok := present(input, "weight"); ok {
		f, ok := toNumber(v)
		if !ok || f < 0 {
			return nil, invalid(KindInvalidWeight, "weight", "weight must be a non-negative number")
		}
		p.Weight = &f
	}

	if v, ok := present(input, "quantity"); ok {
		f, ok := toNumber(v)
		if !ok || f < 0 || f != math.Trunc(f) || f >= 1<<63 {
			return nil, invalid(KindInvalidQuantity, "quantity", "quantity must be a non-negative integer")
		}
		q := int64(f)
		p.Quantity = &q
	}

	if v, ok := present(input, "totalFreight"); ok {
		f, ok := toNumber(v)
		if !ok || f < 0 {
			return nil, invalid(KindInvalidTotalFreight, "totalFreight", "totalFreight must be a non-negative number")
		}
		p.TotalFreight = &f
	} else if mode == ModeCreate {
		var zero float64
		p.TotalFreight = &zero
	}

	if v, ok := present(input, "events"); ok {
		evs, err := normalizeEvents(v, now)
		if err != nil {
			return nil, err
		}
		p.Events = &evs
	} else if mode == ModeCreate {
		evs := []models.TimelineEvent{}
		p.Events = &evs
	}

	for k, v := range input {
		if _, known := knownKeys[k]; known {
			continue
		}
		if _, reserved := models.ReservedTrackingKeys[k]; reserved {
			continue
		}
		// Dotted or $-prefixed keys would address nested paths or operators in the store.
		if k == "" || strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
			return nil, invalid(KindInvalidField, k, fmt.Sprintf("field name %q is not allowed", k))
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = plainJSON(v)
	}

	return p, nil
}

func present(input map[string]any, key string) (any, bool) {
	v, ok := input[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func validStatus(s string) bool {
	for _, st := range models.TrackingStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func normalizeParty(input map[string]any, key string, withPhone bool) (*models.PartyPatch, *ValidationError) {
	v, ok := present(input, key)
	if !ok {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, invalid(KindInvalidField, key, key+" must be an object")
	}

	pp := &models.PartyPatch{}
	if v, ok := present(obj, "name"); ok {
		s, ok := toString(v)
		if !ok {
			return nil, invalid(KindInvalidField, key+".name", key+" name must be a string")
		}
		pp.Name = &s
	}
	if v, ok := present(obj, "email"); ok {
		s, isStr := v.(string)
		s = strings.ToLower(strings.TrimSpace(s))
		if !isStr || !ValidEmail(s) {
			return nil, invalid(KindInvalidEmail, key+".email", key+" email is invalid")
		}
		pp.Email = &s
	}
	if withPhone {
		if v, ok := present(obj, "phone"); ok {
			s, ok := toString(v)
			if !ok {
				return nil, invalid(KindInvalidField, key+".phone", key+" phone must be a string")
			}
			pp.Phone = &s
		}
	}
	return pp, nil
}

// normalizeEvents validates the whole list before returning any of it.
func normalizeEvents(v any, now time.Time) ([]models.TimelineEvent, *ValidationError) {
	items, ok := v.([]any)
	if !ok {
		return nil, invalidEvent(-1, "events must be an array")
	}

	out := make([]models.TimelineEvent, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, invalidEvent(i, "event must be an object")
		}

		var ev models.TimelineEvent

		st, _ := toString(obj["status"])
		st = strings.TrimSpace(st)
		if st == "" {
			return nil, invalidEvent(i, "status is required")
		}
		ev.Status = st

		if dv, ok := present(obj, "date"); ok {
			t, ok := dateparse.Parse(dv)
			if !ok {
				return nil, invalidEvent(i, "date is not a valid date")
			}
			ev.Date = t
		} else {
			ev.Date = now
		}

		if lv, ok := present(obj, "location"); ok {
			s, ok := toString(lv)
			if !ok {
				return nil, invalidEvent(i, "location must be a string")
			}
			ev.Location = &s
		}
		if nv, ok := present(obj, "note"); ok {
			s, ok := toString(nv)
			if !ok {
				return nil, invalidEvent(i, "note must be a string")
			}
			ev.Note = &s
		}

		c, ok := toBool(obj["completed"])
		if !ok {
			return nil, invalidEvent(i, "completed must be a boolean")
		}
		ev.Completed = c

		out = append(out, ev)
	}
	return out, nil
}
