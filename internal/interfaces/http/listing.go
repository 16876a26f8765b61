package http

import (
	"fmt"
	"net/http"

	"marketplace/internal/domain/access"
	"marketplace/internal/domain/listing"
	"marketplace/internal/shared/middleware"
)

type ListingHandler struct {
	listings *listing.Service
}

func NewListingHandler(listings *listing.Service) *ListingHandler {
	return &ListingHandler{listings: listings}
}

func (h *ListingHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/listings", h.HandleList)
	mux.HandleFunc("POST /api/listings", h.HandleCreate)
	mux.HandleFunc("GET /api/listings/active", h.HandleListActive)
	mux.HandleFunc("GET /api/listings/{id}", h.HandleGet)
	mux.HandleFunc("PUT /api/listings/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /api/listings/{id}", h.HandleDelete)
	mux.HandleFunc("GET /api/listings/{id}/items", h.HandleListItems)
	mux.HandleFunc("PUT /api/listings/{id}/items", h.HandleReplaceItems)
}

func (h *ListingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// HandleListActive returns listings whose sale window contains now.
func (h *ListingHandler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListActive(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *ListingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w, "listing")
		return
	}

	l, err := h.listings.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	var fields listing.Fields
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, r, bodyError(caller, access.RequireAuthenticated, err))
		return
	}

	l, err := h.listings.Create(r.Context(), caller, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/listings/%d", l.ID))
	writeJSON(w, http.StatusCreated, l)
}

func (h *ListingHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	var fields listing.Fields
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, r, bodyError(caller, access.RequireOwner, err))
		return
	}

	id, _ := pathID(r)
	l, err := h.listings.Update(r.Context(), caller, id, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	id, _ := pathID(r)
	if err := h.listings.Delete(r.Context(), caller, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *ListingHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w, "listing")
		return
	}

	items, err := h.listings.ListItems(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleReplaceItems makes the body, a JSON array of {"id": n}, the complete
// set of items on the listing. A null body clears the set.
func (h *ListingHandler) HandleReplaceItems(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	var refs listing.ItemRefs
	if err := decodeJSON(w, r, &refs); err != nil {
		writeError(w, r, bodyError(caller, access.RequireOwner, err))
		return
	}

	id, _ := pathID(r)
	if err := h.listings.ReplaceItems(r.Context(), caller, id, refs); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
