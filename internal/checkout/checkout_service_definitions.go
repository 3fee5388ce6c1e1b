// Package checkout drives one basket through payment negotiation, verification and order persistence.
package checkout

import (
	"context"
	"sync"
	"time"

	d "github.com/fjod/foodcart/domain"
	"github.com/fjod/foodcart/internal/gateway"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentGateway interface {
	AccessToken(ctx context.Context) (string, error)
	CreateOrder(ctx context.Context, accessToken string, order gateway.OrderRequest) (string, error)
	Transaction(ctx context.Context, accessToken, transactionID string) (*gateway.Transaction, error)
	CheckoutURL(orderCode string) string
	ParseResult(rawURL string) (transactionID string, ok bool, err error)
}

type Backend interface {
	GetProfile(ctx context.Context, userID string) (*d.Profile, error)
	InsertOrder(ctx context.Context, order d.NewOrder) (*d.Order, error)
	InsertOrderItems(ctx context.Context, items []d.NewOrderItem) ([]d.OrderItem, error)
}

// Basket is the part of the basket store checkout needs. Clear is called only on Completed.
type Basket interface {
	Snapshot() d.BasketSnapshot
	Clear() d.BasketSnapshot
}

// State is what callers see of a checkout. Err is the typed failure while Status is FAILED.
type State struct {
	Status      d.CheckoutStatus `json:"status"`
	CheckoutID  string           `json:"checkout_id,omitempty"`
	OrderCode   string           `json:"order_code,omitempty"`
	CheckoutURL string           `json:"checkout_url,omitempty"`
	Amount      int64            `json:"amount,omitempty"`
	Order       *d.Order         `json:"order,omitempty"`
	Err         error            `json:"-"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type Orchestrator struct {
	mu sync.Mutex

	userID   string
	basket   Basket
	gateway  *GatewayHandler
	backend  *BackendHandler
	currency d.Currency
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string

	status     d.CheckoutStatus
	checkoutID string
	payment    *d.PaymentOrder
	order      *d.Order
	// paid is the basket of a verified payment whose order row could not be written.
	paid *d.BasketSnapshot
	// pending holds the item rows of an order whose item insert failed.
	pending   []d.NewOrderItem
	err       error
	updatedAt time.Time
}

func NewOrchestrator(userID string, basket Basket, gw *GatewayHandler, be *BackendHandler, currency d.Currency, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		userID:   userID,
		basket:   basket,
		gateway:  gw,
		backend:  be,
		currency: currency,
		logger:   logger.With(zap.String("user_id", userID)),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
		status:   d.CheckoutStatusIdle,
	}
}

// State returns the current checkout state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stateLocked()
}

func (o *Orchestrator) stateLocked() State {
	s := State{
		Status:     o.status,
		CheckoutID: o.checkoutID,
		Order:      o.order,
		Err:        o.err,
		UpdatedAt:  o.updatedAt,
	}
	if o.payment != nil {
		s.OrderCode = o.payment.OrderCode
		s.CheckoutURL = o.payment.CheckoutURL
		s.Amount = o.payment.Amount
	}
	return s
}

// transitionLocked moves to next, logging the change. The caller holds mu.
func (o *Orchestrator) transitionLocked(next d.CheckoutStatus) error {
	if !d.CanTransitionTo(o.status, next) {
		return ErrIllegalTransition
	}
	o.logger.Info("checkout status changed",
		zap.String("checkout_id", o.checkoutID),
		zap.String("from", o.status.String()),
		zap.String("to", next.String()))
	o.status = next
	o.updatedAt = o.now()
	return nil
}

// failLocked moves to FAILED with err and discards the payment order.
func (o *Orchestrator) failLocked(err error) State {
	if tErr := o.transitionLocked(d.CheckoutStatusFailed); tErr != nil {
		o.logger.Error("cannot fail checkout", zap.String("status", o.status.String()), zap.Error(tErr))
	}
	o.err = err
	o.payment = nil
	o.logger.Warn("checkout failed",
		zap.String("checkout_id", o.checkoutID),
		zap.String("kind", KindOf(err).String()),
		zap.Error(err))
	return o.stateLocked()
}
