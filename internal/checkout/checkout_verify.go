package checkout

import (
	"context"
	"fmt"

	d "github.com/fjod/foodcart/domain"
	"go.uber.org/zap"
)

// ObserveNavigation is fed every URL the embedded payment browser navigates to. URLs other
// than the gateway result page, or any URL outside AWAITING_USER_PAYMENT, are not handled.
// A result page runs verification and, on a finalized payment, order persistence.
func (o *Orchestrator) ObserveNavigation(ctx context.Context, rawURL string) (State, bool, error) {
	o.mu.Lock()
	if o.status != d.CheckoutStatusAwaitingUserPayment {
		defer o.mu.Unlock()
		return o.stateLocked(), false, nil
	}

	transactionID, ok, err := o.gateway.gateway.ParseResult(rawURL)
	if !ok {
		defer o.mu.Unlock()
		return o.stateLocked(), false, nil
	}
	if err != nil {
		defer o.mu.Unlock()
		return o.stateLocked(), true, err
	}

	if err := o.transitionLocked(d.CheckoutStatusVerifyingTransaction); err != nil {
		defer o.mu.Unlock()
		return o.stateLocked(), true, err
	}
	payment := *o.payment
	o.mu.Unlock()

	o.logger.Info("verifying transaction",
		zap.String("checkout_id", payment.CheckoutID),
		zap.String("transaction_id", transactionID))

	// From here reconciliation runs to the end regardless of the caller.
	// Each gateway and backend call keeps its own timeout.
	ctx = context.WithoutCancel(ctx)
	if err := o.verify(ctx, payment, transactionID); err != nil {
		o.mu.Lock()
		defer o.mu.Unlock()
		return o.failLocked(err), true, err
	}

	state, err := o.persist(ctx, payment.Basket)
	return state, true, err
}

// Abandon records that the user closed the payment page. The basket is not touched.
func (o *Orchestrator) Abandon() (State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != d.CheckoutStatusAwaitingUserPayment {
		return o.stateLocked(), ErrIllegalTransition
	}
	return o.failLocked(ErrCheckoutAbandoned), nil
}

// verify accepts only a finalized transaction of this checkout's payment order for the
// negotiated amount. It reuses the access token issued with the payment order.
func (o *Orchestrator) verify(ctx context.Context, payment d.PaymentOrder, transactionID string) error {
	const op = "verify transaction"

	ctx, cancel := context.WithTimeout(ctx, o.gateway.timeout)
	defer cancel()

	tx, err := o.gateway.gateway.Transaction(ctx, payment.AccessToken, transactionID)
	if err != nil {
		return gatewayError(op, err)
	}
	if !tx.Finalized() {
		return newError(KindPaymentNotCompleted, op,
			fmt.Errorf("transaction %s has status %q", transactionID, tx.StatusID))
	}
	if tx.OrderCode.String() != payment.OrderCode {
		return newError(KindPaymentNotCompleted, op,
			fmt.Errorf("transaction %s belongs to payment order %q, not %q", transactionID, tx.OrderCode, payment.OrderCode))
	}
	if paid := payment.Currency.MinorUnits(tx.Amount); paid != payment.Amount {
		return newError(KindPaymentNotCompleted, op,
			fmt.Errorf("transaction %s paid %d, payment order is %d", transactionID, paid, payment.Amount))
	}
	return nil
}
