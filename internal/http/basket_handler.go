package http

import (
	"context"
	"net/http"
	"strconv"

	d "github.com/fjod/foodcart/domain"
	"github.com/fjod/foodcart/internal/basket"
	"github.com/go-chi/chi/v5"
)

const maxDelta = 99

type BasketSessions interface {
	Basket(ctx context.Context, userID string) *basket.Store
	Persist(ctx context.Context, userID string)
}

type ProductCatalog interface {
	List(ctx context.Context) ([]d.Product, error)
	Get(ctx context.Context, id int64) (d.Product, error)
}

type BasketHandler struct {
	sessions    BasketSessions
	catalog     ProductCatalog
	maxBodySize int64
}

func NewBasketHandler(sessions BasketSessions, catalog ProductCatalog, maxBodySize int64) *BasketHandler {
	return &BasketHandler{
		sessions:    sessions,
		catalog:     catalog,
		maxBodySize: maxBodySize,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Delta int `json:"delta"`
}

// GET /api/v1/basket
func (h *BasketHandler) GetBasket(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, h.sessions.Basket(r.Context(), userID).Snapshot())
}

// POST /api/v1/basket/items
func (h *BasketHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if !decodeJSON(w, r, h.maxBodySize, &req) {
		return
	}
	if req.ProductID <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	p, err := h.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	snapshot := h.sessions.Basket(r.Context(), userID).AddProduct(p)
	h.sessions.Persist(r.Context(), userID)
	respondJSON(w, r, http.StatusCreated, snapshot)
}

// PATCH /api/v1/basket/items/{product_id}
func (h *BasketHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, h.maxBodySize, &req) {
		return
	}
	if req.Delta < -maxDelta || req.Delta > maxDelta {
		respondError(w, r, http.StatusBadRequest, "invalid_delta", "delta must be between -99 and 99")
		return
	}

	store := h.sessions.Basket(r.Context(), userID)
	p, inBasket := lineProduct(store.Snapshot(), productID)
	if !inBasket {
		if req.Delta <= 0 {
			respondJSON(w, r, http.StatusOK, store.Snapshot())
			return
		}
		var err error
		if p, err = h.catalog.Get(r.Context(), productID); err != nil {
			handleError(w, r, err)
			return
		}
	}

	snapshot := store.UpdateQuantity(p, req.Delta)
	h.sessions.Persist(r.Context(), userID)
	respondJSON(w, r, http.StatusOK, snapshot)
}

// DELETE /api/v1/basket/items/{product_id} removes one unit.
func (h *BasketHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	store := h.sessions.Basket(r.Context(), userID)
	p, inBasket := lineProduct(store.Snapshot(), productID)
	if !inBasket {
		respondJSON(w, r, http.StatusOK, store.Snapshot())
		return
	}

	snapshot := store.RemoveProduct(p)
	h.sessions.Persist(r.Context(), userID)
	respondJSON(w, r, http.StatusOK, snapshot)
}

// lineProduct returns the product as stored on its basket line, so quantity changes use the price it was added at.
func lineProduct(s d.BasketSnapshot, productID int64) (d.Product, bool) {
	for _, l := range s.Lines {
		if l.Product.ID == productID {
			return l.Product, true
		}
	}
	return d.Product{}, false
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}
