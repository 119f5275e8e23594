package cargo_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *CargoAPI) createTracking(w http.ResponseWriter, r *http.Request) {
	in, err := a.decodeObject(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	t, err := a.trackings.Create(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusCreated, "Tracking created successfully", t)
}

func (a *CargoAPI) listTrackings(w http.ResponseWriter, r *http.Request) {
	ts, err := a.trackings.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	n := len(ts)
	a.writeJSON(w, http.StatusOK, envelope{Success: true, Count: &n, Data: ts})
}

func (a *CargoAPI) getTracking(w http.ResponseWriter, r *http.Request) {
	t, err := a.trackings.GetByNumber(r.Context(), chi.URLParam(r, "trackingNumber"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "", t)
}

func (a *CargoAPI) updateTracking(w http.ResponseWriter, r *http.Request) {
	in, err := a.decodeObject(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	t, err := a.trackings.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Tracking updated successfully", t)
}

func (a *CargoAPI) deleteTracking(w http.ResponseWriter, r *http.Request) {
	t, err := a.trackings.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Tracking deleted successfully", t)
}
