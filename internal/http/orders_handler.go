package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	d "github.com/fjod/foodcart/domain"
	"github.com/fjod/foodcart/internal/backend"
	"github.com/fjod/foodcart/internal/realtime"
	"github.com/fjod/foodcart/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const defaultKeepAlive = 15 * time.Second

type OrderStore interface {
	GetProfile(ctx context.Context, userID string) (*d.Profile, error)
	GetOrder(ctx context.Context, id int64) (*d.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]d.Order, error)
	ListOrdersByStatus(ctx context.Context, statuses []d.OrderStatus) ([]d.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status d.OrderStatus) (*d.Order, error)
}

type ChangeSubscriber interface {
	Subscribe(f realtime.Filter, buffer int) *realtime.Subscription
}

type OrdersHandler struct {
	store     OrderStore
	changes   ChangeSubscriber
	keepAlive time.Duration
}

func NewOrdersHandler(store OrderStore, changes ChangeSubscriber) *OrdersHandler {
	return &OrdersHandler{
		store:     store,
		changes:   changes,
		keepAlive: defaultKeepAlive,
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	orders, err := h.store.ListOrdersByUser(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, nonNilOrders(orders))
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.visibleOrder(w, r)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, order)
}

// GET /api/v1/orders/{order_id}/events streams status changes of one order as server-sent events.
// The current order is sent first; the stream ends after Delivered.
func (h *OrdersHandler) Events(w http.ResponseWriter, r *http.Request) {
	order, ok := h.visibleOrder(w, r)
	if !ok {
		return
	}
	sub := h.changes.Subscribe(realtime.Filter{OrderID: order.ID, Event: d.ChangeUpdate}, 0)
	defer sub.Close()

	h.stream(w, r, sub, order)
}

// visibleOrder loads the order in the path. Orders of other users are reported as not found
// unless the caller is an admin.
func (h *OrdersHandler) visibleOrder(w http.ResponseWriter, r *http.Request) (*d.Order, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return nil, false
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		handleError(w, r, err)
		return nil, false
	}
	if order.UserID == userID {
		return order, true
	}

	profile, err := h.store.GetProfile(r.Context(), userID)
	if err != nil && !errors.Is(err, backend.ErrProfileNotFound) {
		handleError(w, r, err)
		return nil, false
	}
	if profile == nil || !profile.IsAdmin() {
		handleError(w, r, fmt.Errorf("%w: %d", backend.ErrOrderNotFound, orderID))
		return nil, false
	}
	return order, true
}

func (h *OrdersHandler) stream(w http.ResponseWriter, r *http.Request, sub *realtime.Subscription, initial *d.Order) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}
	log := logger.FromContext(r.Context(), nil)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if initial != nil {
		if err := writeEvent(w, "order", initial); err != nil {
			log.Debug("event stream closed", zap.Error(err))
			return
		}
	}
	flusher.Flush()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case change, ok := <-sub.C:
			if !ok {
				return
			}
			// single-order streams carry the order; table-wide streams carry the whole change
			var err error
			if initial != nil {
				err = writeEvent(w, "order", change.Order)
			} else {
				err = writeEvent(w, "change", change)
			}
			if err != nil {
				log.Debug("event stream closed", zap.Error(err))
				return
			}
			flusher.Flush()
			if initial != nil && change.Order.Status == d.OrderStatusDelivered {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_order_id", "order_id must be a positive integer")
		return 0, false
	}
	return orderID, true
}

func nonNilOrders(orders []d.Order) []d.Order {
	if orders == nil {
		return []d.Order{}
	}
	return orders
}
