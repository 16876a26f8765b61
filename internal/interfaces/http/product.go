package http

import (
	"fmt"
	"net/http"

	"marketplace/internal/domain/access"
	"marketplace/internal/domain/listing"
	"marketplace/internal/domain/product"
	"marketplace/internal/shared/middleware"
)

type ProductHandler struct {
	products *product.Service
	listings *listing.Service
}

func NewProductHandler(products *product.Service, listings *listing.Service) *ProductHandler {
	return &ProductHandler{products: products, listings: listings}
}

func (h *ProductHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.HandleList)
	mux.HandleFunc("POST /api/products", h.HandleCreate)
	mux.HandleFunc("GET /api/products/{id}", h.HandleGet)
	mux.HandleFunc("PUT /api/products/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /api/products/{id}", h.HandleDelete)
	mux.HandleFunc("GET /api/products/{id}/listings", h.HandleListings)
}

func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w, "product")
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleCreate adds a catalog entry. Admin only.
func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	var fields product.Fields
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, r, bodyError(caller, access.RequireAdmin, err))
		return
	}

	p, err := h.products.Create(r.Context(), caller, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/products/%d", p.ID))
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	var fields product.Fields
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, r, bodyError(caller, access.RequireAdmin, err))
		return
	}

	id, _ := pathID(r)
	p, err := h.products.Update(r.Context(), caller, id, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	// An unparsable id locates nothing, so the usual checks still run first.
	id, _ := pathID(r)
	if err := h.products.Delete(r.Context(), caller, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleListings returns the active listings that include an item of the product.
func (h *ProductHandler) HandleListings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w, "product")
		return
	}

	listings, err := h.listings.ListActiveByProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}
