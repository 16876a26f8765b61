package http

import (
	"fmt"
	"net/http"

	"marketplace/internal/domain/access"
	"marketplace/internal/domain/item"
	"marketplace/internal/shared/middleware"
)

type ItemHandler struct {
	items *item.Service
}

func NewItemHandler(items *item.Service) *ItemHandler {
	return &ItemHandler{items: items}
}

func (h *ItemHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/items", h.HandleList)
	mux.HandleFunc("POST /api/items", h.HandleCreate)
	mux.HandleFunc("GET /api/items/{id}", h.HandleGet)
	mux.HandleFunc("PUT /api/items/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /api/items/{id}", h.HandleDelete)
}

func (h *ItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w, "item")
		return
	}

	it, err := h.items.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// HandleCreate stores an item owned by the caller. Any ownerId in the body
// is ignored.
func (h *ItemHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	var fields item.Fields
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, r, bodyError(caller, access.RequireAuthenticated, err))
		return
	}

	it, err := h.items.Create(r.Context(), caller, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/items/%d", it.ID))
	writeJSON(w, http.StatusCreated, it)
}

func (h *ItemHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	var fields item.Fields
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, r, bodyError(caller, access.RequireOwner, err))
		return
	}

	id, _ := pathID(r)
	it, err := h.items.Update(r.Context(), caller, id, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *ItemHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	id, _ := pathID(r)
	if err := h.items.Delete(r.Context(), caller, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
