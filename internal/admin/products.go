package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"shopbot/internal/domain"
	"shopbot/internal/store"
)

func (s *Server) listProducts(rw http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.SearchProducts(r.Context(), domain.ProductFilter{})
	if err != nil {
		s.logger.Error("list products failed", "err", err)
		writeError(rw, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(rw, http.StatusOK, products)
}

func (s *Server) createProduct(rw http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateProduct(p); msg != "" {
		writeError(rw, http.StatusBadRequest, msg)
		return
	}
	if p.ID == "" {
		p.ID = "p-" + uuid.NewString()[:8]
	}

	if err := s.catalog.CreateProduct(r.Context(), p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(rw, http.StatusConflict, "a product with that name already exists")
			return
		}
		s.logger.Error("create product failed", "err", err)
		writeError(rw, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(rw, http.StatusCreated, p)
}

func (s *Server) updateProduct(rw http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p.ID = chi.URLParam(r, "id")
	if msg := validateProduct(p); msg != "" {
		writeError(rw, http.StatusBadRequest, msg)
		return
	}

	if err := s.catalog.UpdateProduct(r.Context(), p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(rw, http.StatusNotFound, "product not found")
			return
		}
		s.logger.Error("update product failed", "id", p.ID, "err", err)
		writeError(rw, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(rw, http.StatusOK, p)
}

func (s *Server) deleteProduct(rw http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.catalog.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(rw, http.StatusNotFound, "product not found")
			return
		}
		s.logger.Error("delete product failed", "id", id, "err", err)
		writeError(rw, http.StatusInternalServerError, "internal error")
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func validateProduct(p domain.Product) string {
	if strings.TrimSpace(p.Name) == "" {
		return "name is required"
	}
	if p.Price < 0 {
		return "price must not be negative"
	}
	if p.Stock < 0 {
		return "stock must not be negative"
	}
	return ""
}
