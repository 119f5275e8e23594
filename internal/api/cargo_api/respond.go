package cargo_api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/BearBump/CargoTrack/internal/services/contacts"
	"github.com/BearBump/CargoTrack/internal/services/shipments"
	"github.com/BearBump/CargoTrack/internal/services/trackings"
	"github.com/pkg/errors"
)

type envelope struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message,omitempty"`
	Data       any                `json:"data,omitempty"`
	Count      *int               `json:"count,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// writeJSON marshals before writing the header, so a value json cannot
// encode turns into a logged 500 instead of a truncated 200.
func (a *CargoAPI) writeJSON(w http.ResponseWriter, status int, body envelope) {
	b, err := json.Marshal(body)
	if err != nil {
		a.log.Error("encode response", "status", status, "err", err)
		status = http.StatusInternalServerError
		b, _ = json.Marshal(envelope{Message: "Internal server error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(b, '\n')); err != nil {
		a.log.Debug("write response", "err", err)
	}
}

func (a *CargoAPI) ok(w http.ResponseWriter, status int, message string, data any) {
	a.writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func (a *CargoAPI) fail(w http.ResponseWriter, status int, message, kind string) {
	a.writeJSON(w, status, envelope{Message: message, Error: kind})
}

var errBodyNotObject = errors.New("request body must be a JSON object")

// decodeObject reads the body as a JSON object. Numbers stay json.Number so
// numeric strings and numbers can be told apart later. An empty body yields
// an empty map.
func (a *CargoAPI) decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, a.maxBodyBytes))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, errors.Wrap(errBodyNotObject, err.Error())
	}
	obj, isObj := v.(map[string]any)
	if !isObj {
		return nil, errBodyNotObject
	}
	return obj, nil
}

// writeError maps service errors onto status codes: validation 400,
// conflict 409, not found 404, everything else 500.
func (a *CargoAPI) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		tve *trackings.ValidationError
		sve *shipments.ValidationError
		cve *contacts.ValidationError
	)
	switch {
	case errors.Is(err, errBodyNotObject):
		a.fail(w, http.StatusBadRequest, errBodyNotObject.Error(), string(trackings.KindInvalidPayload))
	case errors.As(err, &tve):
		a.fail(w, http.StatusBadRequest, tve.Error(), string(tve.Kind))
	case errors.As(err, &sve):
		a.metrics.ValidationFailures.WithLabelValues("Shipment").Inc()
		a.fail(w, http.StatusBadRequest, sve.Error(), "ValidationError")
	case errors.As(err, &cve):
		a.metrics.ValidationFailures.WithLabelValues("Contact").Inc()
		a.fail(w, http.StatusBadRequest, cve.Error(), "ValidationError")

	case errors.Is(err, shipments.ErrInvalidID):
		a.fail(w, http.StatusBadRequest, "Invalid shipment ID", "InvalidID")
	case errors.Is(err, contacts.ErrInvalidID):
		a.fail(w, http.StatusBadRequest, "Invalid contact ID", "InvalidID")

	case errors.Is(err, trackings.ErrDuplicateTrackingNumber):
		a.fail(w, http.StatusConflict, "Tracking number already exists", string(trackings.KindDuplicateTrackingNumber))
	case errors.Is(err, shipments.ErrDuplicateShipmentNumber):
		a.fail(w, http.StatusConflict, "Shipment number already exists", "DuplicateShipmentNumber")

	case errors.Is(err, trackings.ErrTrackingNotFound):
		a.fail(w, http.StatusNotFound, "Tracking not found", "NotFound")
	case errors.Is(err, shipments.ErrShipmentNotFound):
		a.fail(w, http.StatusNotFound, "Shipment not found", "NotFound")
	case errors.Is(err, contacts.ErrContactNotFound):
		a.fail(w, http.StatusNotFound, "Contact not found", "NotFound")

	default:
		a.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		a.fail(w, http.StatusInternalServerError, "Internal server error", "")
	}
}
