package http

import (
	"context"
	"net/http"
	"strconv"

	d "github.com/fjod/foodcart/domain"
	"github.com/go-chi/chi/v5"
)

// MenuCatalog is what the menu screens read: products and the categories grouping them.
type MenuCatalog interface {
	ProductCatalog
	Categories(ctx context.Context) ([]d.Category, error)
	ByCategory(ctx context.Context, categoryID int64) (d.CategoryMenu, error)
}

type ProductHandler struct {
	catalog MenuCatalog
}

func NewProductHandler(catalog MenuCatalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if products == nil {
		products = []d.Product{}
	}
	respondJSON(w, r, http.StatusOK, products)
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	p, err := h.catalog.Get(r.Context(), productID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

// GET /api/v1/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if categories == nil {
		categories = []d.Category{}
	}
	respondJSON(w, r, http.StatusOK, categories)
}

// GET /api/v1/categories/{category_id}/products
func (h *ProductHandler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.ParseInt(chi.URLParam(r, "category_id"), 10, 64)
	if err != nil || categoryID <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_category_id", "category_id must be a positive integer")
		return
	}
	menu, err := h.catalog.ByCategory(r.Context(), categoryID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, menu)
}
