package checkout

import (
	"errors"
	"fmt"

	"github.com/fjod/foodcart/internal/gateway"
)

var (
	ErrEmptyBasket          = errors.New("basket is empty, nothing to checkout")
	ErrCheckoutInProgress   = errors.New("a checkout is already in progress for this basket")
	ErrCheckoutAbandoned    = errors.New("checkout abandoned by user")
	ErrIllegalTransition    = errors.New("illegal transition of checkout status")
	ErrNothingToRetry       = errors.New("no paid order is waiting to be persisted")
	ErrMissingTransactionID = gateway.ErrMissingTransactionID
)

// Kind sentinels, matched with errors.Is against any *Error of that kind.
var (
	ErrIncompleteProfile       = errors.New("profile is missing address or phone")
	ErrGatewayUnavailable      = errors.New("payment gateway unavailable")
	ErrPaymentNotCompleted     = errors.New("payment not completed")
	ErrPartialOrderPersistence = errors.New("order saved without its items")
	ErrBackendUnavailable      = errors.New("data backend unavailable")
)

type Kind int

const (
	KindUnknown Kind = iota
	KindIncompleteProfile
	KindGatewayUnavailable
	KindPaymentNotCompleted
	KindPartialOrderPersistence
	KindBackendUnavailable
)

var kindSentinels = map[Kind]error{
	KindIncompleteProfile:       ErrIncompleteProfile,
	KindGatewayUnavailable:      ErrGatewayUnavailable,
	KindPaymentNotCompleted:     ErrPaymentNotCompleted,
	KindPartialOrderPersistence: ErrPartialOrderPersistence,
	KindBackendUnavailable:      ErrBackendUnavailable,
}

func (k Kind) String() string {
	switch k {
	case KindIncompleteProfile:
		return "IncompleteProfile"
	case KindGatewayUnavailable:
		return "GatewayUnavailable"
	case KindPaymentNotCompleted:
		return "PaymentNotCompleted"
	case KindPartialOrderPersistence:
		return "PartialOrderPersistence"
	case KindBackendUnavailable:
		return "BackendUnavailable"
	default:
		return "Unknown"
	}
}

// Error is a failed checkout step. OrderID is set when an order row exists without its items.
type Error struct {
	Kind    Kind
	Op      string
	OrderID int64
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, kindSentinels[e.Kind])
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, kindSentinels[e.Kind], e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// Retryable reports whether re-invoking checkout can succeed without user changes.
func (e *Error) Retryable() bool {
	return e.Kind != KindIncompleteProfile
}

// KindOf returns the checkout error kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// GatewayResponse extracts the status and body of a non-2xx gateway reply wrapped in err.
func GatewayResponse(err error) (statusCode int, body string, ok bool) {
	var httpErr *gateway.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, httpErr.Body, true
	}
	return 0, "", false
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
