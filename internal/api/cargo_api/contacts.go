package cargo_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *CargoAPI) createContact(w http.ResponseWriter, r *http.Request) {
	in, err := a.decodeObject(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	c, err := a.contacts.Create(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusCreated, "Contact message created successfully", c)
}

func (a *CargoAPI) listContacts(w http.ResponseWriter, r *http.Request) {
	cs, err := a.contacts.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	n := len(cs)
	a.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "All contacts retrieved successfully",
		Count:   &n,
		Data:    cs,
	})
}

func (a *CargoAPI) getContact(w http.ResponseWriter, r *http.Request) {
	c, err := a.contacts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Contact retrieved successfully", c)
}

func (a *CargoAPI) updateContact(w http.ResponseWriter, r *http.Request) {
	in, err := a.decodeObject(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	c, err := a.contacts.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Contact updated successfully", c)
}

func (a *CargoAPI) updateContactStatus(w http.ResponseWriter, r *http.Request) {
	in, err := a.decodeObject(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	status, _ := in["status"].(string)
	c, err := a.contacts.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Contact status updated successfully", c)
}

func (a *CargoAPI) deleteContact(w http.ResponseWriter, r *http.Request) {
	c, err := a.contacts.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w, http.StatusOK, "Contact deleted successfully", c)
}
