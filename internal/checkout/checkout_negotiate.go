package checkout

import (
	"context"

	d "github.com/fjod/foodcart/domain"
	"github.com/fjod/foodcart/internal/gateway"
	"go.uber.org/zap"
)

// Initiate starts a checkout for the current basket and returns once the payment order exists
// (AWAITING_USER_PAYMENT) or the attempt has failed. Only one checkout runs per basket at a time.
func (o *Orchestrator) Initiate(ctx context.Context) (State, error) {
	o.mu.Lock()
	if !o.status.IsTerminal() {
		o.mu.Unlock()
		return o.State(), ErrCheckoutInProgress
	}
	snapshot := o.basket.Snapshot()
	if snapshot.IsEmpty() {
		o.mu.Unlock()
		return o.State(), ErrEmptyBasket
	}
	switch {
	case o.order != nil && len(o.pending) > 0:
		o.logger.Warn("starting new checkout over a partially persisted order",
			zap.Int64("order_id", o.order.ID))
	case o.paid != nil:
		o.logger.Warn("starting new checkout over a paid but unsaved order",
			zap.String("checkout_id", o.checkoutID))
	}

	o.checkoutID = o.newID()
	o.payment = nil
	o.order = nil
	o.paid = nil
	o.pending = nil
	o.err = nil
	if err := o.transitionLocked(d.CheckoutStatusNegotiatingPayment); err != nil {
		o.mu.Unlock()
		return o.State(), err
	}
	checkoutID := o.checkoutID
	o.mu.Unlock()

	payment, err := o.negotiate(ctx, checkoutID, snapshot)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		return o.failLocked(err), err
	}
	o.payment = payment
	if err := o.transitionLocked(d.CheckoutStatusAwaitingUserPayment); err != nil {
		return o.failLocked(err), err
	}
	return o.stateLocked(), nil
}

// negotiate checks the profile, then gets a token and creates the gateway payment order.
// No gateway call is made for an incomplete profile.
func (o *Orchestrator) negotiate(ctx context.Context, checkoutID string, snapshot d.BasketSnapshot) (*d.PaymentOrder, error) {
	profile, err := o.readProfile(ctx)
	if err != nil {
		return nil, err
	}
	if !profile.Complete() {
		return nil, newError(KindIncompleteProfile, "check profile", nil)
	}

	token, err := o.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	payment := &d.PaymentOrder{
		CheckoutID:  checkoutID,
		Amount:      o.currency.MinorUnits(snapshot.Total),
		Currency:    o.currency,
		Customer:    profile.Customer(),
		AccessToken: token,
		Basket:      snapshot,
	}

	orderCode, err := o.createPaymentOrder(ctx, payment)
	if err != nil {
		return nil, err
	}
	payment.OrderCode = orderCode
	payment.CheckoutURL = o.gateway.gateway.CheckoutURL(orderCode)

	o.logger.Info("payment order created",
		zap.String("checkout_id", checkoutID),
		zap.String("order_code", orderCode),
		zap.Int64("amount", payment.Amount),
		zap.String("currency", o.currency.Code))
	return payment, nil
}

func (o *Orchestrator) readProfile(ctx context.Context) (*d.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, o.backend.timeout)
	defer cancel()

	profile, err := o.backend.backend.GetProfile(ctx, o.userID)
	if err != nil {
		return nil, newError(KindBackendUnavailable, "read profile", err)
	}
	return profile, nil
}

func (o *Orchestrator) accessToken(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.gateway.timeout)
	defer cancel()

	token, err := o.gateway.gateway.AccessToken(ctx)
	if err != nil {
		return "", gatewayError("access token", err)
	}
	return token, nil
}

func (o *Orchestrator) createPaymentOrder(ctx context.Context, payment *d.PaymentOrder) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.gateway.timeout)
	defer cancel()

	orderCode, err := o.gateway.gateway.CreateOrder(ctx, payment.AccessToken, gateway.OrderRequest{
		Amount:              payment.Amount,
		Customer:            payment.Customer,
		CurrencyCode:        payment.Currency.Numeric,
		PaymentNotification: true,
		MerchantTrns:        payment.CheckoutID,
	})
	if err != nil {
		return "", gatewayError("create payment order", err)
	}
	return orderCode, nil
}

// gatewayError classifies any gateway failure, including timeouts and an open breaker.
func gatewayError(op string, err error) *Error {
	return newError(KindGatewayUnavailable, op, err)
}
