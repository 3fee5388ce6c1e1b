package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fjod/foodcart/internal/backend"
	"github.com/fjod/foodcart/internal/catalog"
	"github.com/fjod/foodcart/internal/checkout"
	"github.com/fjod/foodcart/pkg/logger"
	"go.uber.org/zap"
)

// errorCode maps err to a response status and machine-readable code.
// Checkout kinds are checked before context errors because they may wrap a timeout.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrIncompleteProfile):
		return http.StatusUnprocessableEntity, "incomplete_profile"
	case errors.Is(err, checkout.ErrGatewayUnavailable):
		return http.StatusBadGateway, "gateway_unavailable"
	case errors.Is(err, checkout.ErrPaymentNotCompleted):
		return http.StatusPaymentRequired, "payment_not_completed"
	case errors.Is(err, checkout.ErrPartialOrderPersistence):
		return http.StatusInternalServerError, "partial_order_persistence"
	case errors.Is(err, checkout.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "backend_unavailable"

	case errors.Is(err, checkout.ErrCheckoutInProgress):
		return http.StatusConflict, "checkout_in_progress"
	case errors.Is(err, checkout.ErrIllegalTransition):
		return http.StatusConflict, "illegal_transition"
	case errors.Is(err, checkout.ErrNothingToRetry):
		return http.StatusConflict, "nothing_to_retry"
	case errors.Is(err, checkout.ErrEmptyBasket):
		return http.StatusBadRequest, "empty_basket"
	case errors.Is(err, checkout.ErrMissingTransactionID):
		return http.StatusBadRequest, "missing_transaction_id"
	case errors.Is(err, checkout.ErrCheckoutAbandoned):
		return http.StatusConflict, "checkout_abandoned"

	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, backend.ErrProductNotFound):
		return http.StatusNotFound, "product_not_found"
	case errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, backend.ErrCategoryNotFound):
		return http.StatusNotFound, "category_not_found"
	case errors.Is(err, backend.ErrOrderNotFound):
		return http.StatusNotFound, "order_not_found"
	case errors.Is(err, backend.ErrProfileNotFound):
		return http.StatusNotFound, "profile_not_found"

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusBadRequest, "canceled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// errorDetails adds diagnostics a client can act on: the gateway reply and the saved order id.
func errorDetails(err error) string {
	if status, body, ok := checkout.GatewayResponse(err); ok {
		return fmt.Sprintf("gateway responded %d: %s", status, body)
	}
	var ce *checkout.Error
	if errors.As(err, &ce) && ce.OrderID != 0 {
		return fmt.Sprintf("order %d saved without items; retry with POST /api/v1/checkout/retry-items", ce.OrderID)
	}
	return ""
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorCode(err)
	message := err.Error()
	if status >= http.StatusInternalServerError && code == "internal_error" {
		message = "internal server error"
	}
	logger.FromContext(r.Context(), nil).Warn("request failed",
		zap.Int("status", status),
		zap.String("code", code),
		zap.Error(err))

	respondJSON(w, r, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: errorDetails(err),
	})
}
