package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
)

type CatalogHandler struct {
	svc    CatalogService
	logger *zap.Logger
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// ListProducts filters by ?category=<slug>.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c catalog.Category
	if !decodeJSON(w, r, &c) {
		return
	}
	if err := h.svc.CreateCategory(r.Context(), &c); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var u catalog.CategoryUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	c, err := h.svc.UpdateCategory(r.Context(), chi.URLParam(r, "categoryId"), u)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCategory(r.Context(), chi.URLParam(r, "categoryId")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminListProducts includes deactivated products.
func (h *CatalogHandler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.AdminListProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := h.svc.CreateProduct(r.Context(), &p); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var u catalog.ProductUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	p, err := h.svc.UpdateProduct(r.Context(), chi.URLParam(r, "productId"), u)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeactivateProduct(r.Context(), chi.URLParam(r, "productId")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
