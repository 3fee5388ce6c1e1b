package http

import (
	"errors"
	"net/http"
	"strconv"

	d "github.com/fjod/foodcart/domain"
	"github.com/fjod/foodcart/internal/backend"
	"github.com/fjod/foodcart/internal/realtime"
)

type AdminHandler struct {
	store       OrderStore
	changes     ChangeSubscriber
	orders      *OrdersHandler
	maxBodySize int64
}

func NewAdminHandler(store OrderStore, changes ChangeSubscriber, maxBodySize int64) *AdminHandler {
	return &AdminHandler{
		store:       store,
		changes:     changes,
		orders:      NewOrdersHandler(store, changes),
		maxBodySize: maxBodySize,
	}
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

// RequireAdmin lets through only callers whose profile is in the ADMIN group.
func (h *AdminHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		profile, err := h.store.GetProfile(r.Context(), userID)
		if errors.Is(err, backend.ErrProfileNotFound) || (err == nil && !profile.IsAdmin()) {
			respondError(w, r, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		if err != nil {
			handleError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GET /api/v1/admin/orders?archived=true lists Delivered orders; without it, the active ones.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	statuses := d.ActiveOrderStatuses
	if raw := r.URL.Query().Get("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_archived", "archived must be a boolean")
			return
		}
		if archived {
			statuses = []d.OrderStatus{d.OrderStatusDelivered}
		}
	}

	orders, err := h.store.ListOrdersByStatus(r.Context(), statuses)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, nonNilOrders(orders))
}

// GET /api/v1/admin/orders/{order_id}
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, order)
}

// PATCH /api/v1/admin/orders/{order_id}
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequestDTO
	if !decodeJSON(w, r, h.maxBodySize, &req) {
		return
	}
	status, err := d.ParseOrderStatus(req.Status)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	order, err := h.store.UpdateOrderStatus(r.Context(), orderID, status)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, order)
}

// GET /api/v1/admin/orders/events streams every order insert and update.
func (h *AdminHandler) Events(w http.ResponseWriter, r *http.Request) {
	sub := h.changes.Subscribe(realtime.Filter{}, 0)
	defer sub.Close()

	h.orders.stream(w, r, sub, nil)
}
