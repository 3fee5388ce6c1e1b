package http

import (
	"context"
	"net/http"

	d "github.com/fjod/foodcart/domain"
	"github.com/fjod/foodcart/internal/checkout"
	"github.com/fjod/foodcart/pkg/logger"
	"go.uber.org/zap"
)

type Checkouts interface {
	For(ctx context.Context, userID string) *checkout.Orchestrator
}

type CheckoutHandler struct {
	checkouts   Checkouts
	sessions    BasketSessions
	maxBodySize int64
}

func NewCheckoutHandler(checkouts Checkouts, sessions BasketSessions, maxBodySize int64) *CheckoutHandler {
	return &CheckoutHandler{
		checkouts:   checkouts,
		sessions:    sessions,
		maxBodySize: maxBodySize,
	}
}

type NavigationRequestDTO struct {
	URL string `json:"url"`
}

// CheckoutStateDTO is the checkout state plus the typed failure, if any.
type CheckoutStateDTO struct {
	checkout.State
	Handled *bool          `json:"handled,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// GET /api/v1/checkout
func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	state := h.checkouts.For(r.Context(), userID).State()
	h.respondState(w, r, http.StatusOK, state, nil, nil)
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	state, err := h.checkouts.For(r.Context(), userID).Initiate(r.Context())
	h.respondState(w, r, http.StatusCreated, state, nil, err)
}

// POST /api/v1/checkout/navigation receives every URL the payment page navigates to.
func (h *CheckoutHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req NavigationRequestDTO
	if !decodeJSON(w, r, h.maxBodySize, &req) {
		return
	}
	if req.URL == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_url", "url is required")
		return
	}

	state, handled, err := h.checkouts.For(r.Context(), userID).ObserveNavigation(r.Context(), req.URL)
	h.afterPersist(r.Context(), userID, state)
	h.respondState(w, r, http.StatusOK, state, &handled, err)
}

// POST /api/v1/checkout/abandon
func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	state, err := h.checkouts.For(r.Context(), userID).Abandon()
	h.respondState(w, r, http.StatusOK, state, nil, err)
}

// POST /api/v1/checkout/retry-items
func (h *CheckoutHandler) RetryItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	state, err := h.checkouts.For(r.Context(), userID).RetryOrderItems(r.Context())
	h.afterPersist(r.Context(), userID, state)
	h.respondState(w, r, http.StatusOK, state, nil, err)
}

// afterPersist writes the cleared basket through once an order is complete.
func (h *CheckoutHandler) afterPersist(ctx context.Context, userID string, state checkout.State) {
	if state.Status != d.CheckoutStatusCompleted {
		return
	}
	h.sessions.Persist(ctx, userID)
	if state.Order != nil {
		logger.FromContext(ctx, nil).Info("order placed",
			zap.Int64("order_id", state.Order.ID),
			zap.String("checkout_id", state.CheckoutID))
	}
}

func (h *CheckoutHandler) respondState(w http.ResponseWriter, r *http.Request, status int, state checkout.State, handled *bool, err error) {
	dto := CheckoutStateDTO{State: state, Handled: handled}
	if err == nil {
		err = state.Err
	} else {
		status, _ = errorCode(err)
		logger.FromContext(r.Context(), nil).Warn("checkout request failed",
			zap.String("status", state.Status.String()),
			zap.Error(err))
	}
	if err != nil {
		_, code := errorCode(err)
		dto.Error = &ErrorResponse{
			Error:   err.Error(),
			Code:    code,
			Details: errorDetails(err),
		}
	}
	respondJSON(w, r, status, dto)
}
