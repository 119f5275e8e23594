package shipments

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/BearBump/CargoTrack/internal/dateparse"
	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/BearBump/CargoTrack/internal/services/trackings"
)

const minWeight = 0.1

// applyInput copies input onto sh field by field, stopping at the first bad
// value. With partial set, missing fields keep the values already in sh.
func applyInput(sh *models.Shipment, input map[string]any, partial bool) error {
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"origin", &sh.Origin},
		{"destination", &sh.Destination},
	} {
		if err := requiredString(input, f.key, f.dst, partial); err != nil {
			return err
		}
	}

	if v, ok := present(input, "weight"); ok {
		w, ok := number(v)
		if !ok || w < minWeight {
			return invalid("weight", "weight must be a number of at least 0.1")
		}
		sh.Weight = w
	} else if !partial {
		return invalid("weight", "weight is required")
	}

	if v, ok := present(input, "dimensions"); ok {
		d, err := dimensions(v, sh.Dimensions, partial)
		if err != nil {
			return err
		}
		sh.Dimensions = d
	} else if !partial {
		return invalid("dimensions", "complete dimensions (length, width, height) are required")
	}

	if v, ok := present(input, "preferredShipDate"); ok {
		t, ok := dateparse.Parse(v)
		if !ok {
			return invalid("preferredShipDate", "preferredShipDate is not a valid date")
		}
		sh.PreferredShipDate = t
	} else if !partial {
		return invalid("preferredShipDate", "preferredShipDate is required")
	}

	if v, ok := present(input, "cargoType"); ok {
		s, isStr := v.(string)
		if !isStr || !oneOf(models.CargoTypes, s) {
			return invalid("cargoType", "cargoType must be one of: "+strings.Join(models.CargoTypes, ", "))
		}
		sh.CargoType = s
	} else if !partial {
		return invalid("cargoType", "cargoType is required")
	}

	if err := requiredString(input, "fullName", &sh.FullName, partial); err != nil {
		return err
	}

	if v, ok := present(input, "email"); ok {
		s, isStr := v.(string)
		s = strings.ToLower(strings.TrimSpace(s))
		if !isStr || !trackings.ValidEmail(s) {
			return invalid("email", "please enter a valid email")
		}
		sh.Email = s
	} else if !partial {
		return invalid("email", "email is required")
	}

	if err := requiredString(input, "phone", &sh.Phone, partial); err != nil {
		return err
	}

	var err error
	if sh.Company, err = optionalString(input, "company", sh.Company); err != nil {
		return err
	}
	if sh.Notes, err = optionalString(input, "notes", sh.Notes); err != nil {
		return err
	}

	if !partial {
		return nil
	}

	// поля, которые клиент при создании не задаёт, но админ может править
	if v, ok := present(input, "status"); ok {
		s, isStr := v.(string)
		if !isStr || !oneOf(models.ShipmentStatuses, s) {
			return invalid("status", statusReason)
		}
		sh.Status = s
	}
	if v, ok := present(input, "actualCost"); ok {
		c, ok := number(v)
		if !ok || c < 0 {
			return invalid("actualCost", "actualCost must be a non-negative number")
		}
		sh.ActualCost = &c
	}
	return nil
}

var statusReason = "valid status is required. Options: " + strings.Join(models.ShipmentStatuses, ", ")

func requiredString(input map[string]any, key string, dst *string, partial bool) error {
	v, ok := present(input, key)
	if !ok {
		if partial {
			return nil
		}
		return invalid(key, key+" is required")
	}
	s, isStr := v.(string)
	s = strings.TrimSpace(s)
	if !isStr || s == "" {
		return invalid(key, key+" must be a non-empty string")
	}
	*dst = s
	return nil
}

func optionalString(input map[string]any, key string, cur *string) (*string, error) {
	v, ok := present(input, key)
	if !ok {
		return cur, nil
	}
	s, isStr := v.(string)
	if !isStr {
		return nil, invalid(key, key+" must be a string")
	}
	s = strings.TrimSpace(s)
	return &s, nil
}

func dimensions(v any, cur models.Dimensions, partial bool) (models.Dimensions, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return cur, invalid("dimensions", "dimensions must be an object")
	}
	out := cur
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"length", &out.Length},
		{"width", &out.Width},
		{"height", &out.Height},
	} {
		raw, ok := present(obj, f.key)
		if !ok {
			if partial {
				continue
			}
			return cur, invalid("dimensions."+f.key, "complete dimensions (length, width, height) are required")
		}
		n, ok := number(raw)
		if !ok || n <= 0 {
			return cur, invalid("dimensions."+f.key, "dimensions."+f.key+" must be a positive number")
		}
		*f.dst = n
	}
	return out, nil
}

// EstimateCost prices a shipment: a base rate plus weight and volume
// components, with a 1.5 multiplier when origin and destination differ.
func EstimateCost(weight float64, d models.Dimensions, origin, destination string) float64 {
	const (
		baseRate   = 5.0
		weightRate = 2.0
		volumeRate = 0.001
	)
	cost := baseRate + weight*weightRate + d.Length*d.Width*d.Height*volumeRate
	if !strings.EqualFold(origin, destination) {
		cost *= 1.5
	}
	return math.Round(cost*100) / 100
}

func present(input map[string]any, key string) (any, bool) {
	v, ok := input[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func oneOf(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
