package cargo_api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/go-chi/chi/v5"
)

func (a *CargoAPI) createShipment(w http.ResponseWriter, r *http.Request) {
	in, err := a.decodeObject(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	sh, err := a.shipments.Create(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusCreated, "Shipment request created successfully", sh)
}

func (a *CargoAPI) listShipments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	// мусор в page/limit трактуем как отсутствие параметра
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	items, p, err := a.shipments.List(r.Context(), models.ShipmentFilter{
		Status:    q.Get("status"),
		CargoType: q.Get("cargoType"),
		Search:    strings.TrimSpace(q.Get("search")),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, envelope{Success: true, Data: items, Pagination: &p})
}

func (a *CargoAPI) trackShipment(w http.ResponseWriter, r *http.Request) {
	sh, err := a.shipments.GetByNumber(r.Context(), chi.URLParam(r, "shipmentNumber"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "", sh)
}

func (a *CargoAPI) getShipment(w http.ResponseWriter, r *http.Request) {
	sh, err := a.shipments.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "", sh)
}

func (a *CargoAPI) updateShipment(w http.ResponseWriter, r *http.Request) {
	in, err := a.decodeObject(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	sh, err := a.shipments.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Shipment updated successfully", sh)
}

func (a *CargoAPI) updateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	in, err := a.decodeObject(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	status, _ := in["status"].(string)
	var notes *string
	if s, isStr := in["notes"].(string); isStr {
		s = strings.TrimSpace(s)
		notes = &s
	}
	sh, err := a.shipments.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status, notes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Shipment status updated successfully", sh)
}

func (a *CargoAPI) deleteShipment(w http.ResponseWriter, r *http.Request) {
	sh, err := a.shipments.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Shipment deleted successfully", sh)
}
