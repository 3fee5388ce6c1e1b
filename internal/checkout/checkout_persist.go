package checkout

import (
	"context"

	d "github.com/fjod/foodcart/domain"
	"go.uber.org/zap"
)

// persist records the paid basket: the order row first, then every item in one batch.
// The basket is cleared only after both writes succeed.
func (o *Orchestrator) persist(ctx context.Context, paid d.BasketSnapshot) (State, error) {
	o.mu.Lock()
	if err := o.transitionLocked(d.CheckoutStatusPersistingOrder); err != nil {
		defer o.mu.Unlock()
		return o.failLocked(err), err
	}
	o.mu.Unlock()

	return o.persistOrder(ctx, paid)
}

// RetryOrderItems re-issues the writes of a verified payment that failed to persist: the
// order row if it was never written, then the item batch. No new payment is made.
func (o *Orchestrator) RetryOrderItems(ctx context.Context) (State, error) {
	o.mu.Lock()
	retryOrder := o.order == nil && o.paid != nil
	retryItems := o.order != nil && len(o.pending) > 0
	if o.status != d.CheckoutStatusFailed || !(retryOrder || retryItems) {
		defer o.mu.Unlock()
		return o.stateLocked(), ErrNothingToRetry
	}
	if err := o.transitionLocked(d.CheckoutStatusPersistingOrder); err != nil {
		defer o.mu.Unlock()
		return o.stateLocked(), err
	}
	o.err = nil
	order, items, paid := o.order, o.pending, o.paid
	checkoutID := o.checkoutID
	o.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	if retryOrder {
		o.logger.Info("retrying order", zap.String("checkout_id", checkoutID))
		return o.persistOrder(ctx, *paid)
	}
	o.logger.Info("retrying order items", zap.Int64("order_id", order.ID), zap.Int("items", len(items)))
	return o.persistItems(ctx, order, items)
}

func (o *Orchestrator) persistOrder(ctx context.Context, paid d.BasketSnapshot) (State, error) {
	order, err := o.insertOrder(ctx, paid)
	if err != nil {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.paid = &paid
		return o.failLocked(err), err
	}

	o.mu.Lock()
	o.paid = nil
	o.mu.Unlock()
	return o.persistItems(ctx, order, d.ItemsFromBasket(order.ID, paid.Lines))
}

func (o *Orchestrator) persistItems(ctx context.Context, order *d.Order, items []d.NewOrderItem) (State, error) {
	created, err := o.insertOrderItems(ctx, order.ID, items)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.order = order
		o.pending = items
		return o.failLocked(err), err
	}

	completed := *order
	completed.Items = created
	o.order = &completed
	o.pending = nil
	if err := o.transitionLocked(d.CheckoutStatusCompleted); err != nil {
		return o.failLocked(err), err
	}
	o.payment = nil
	o.basket.Clear()
	o.logger.Info("checkout completed",
		zap.String("checkout_id", o.checkoutID),
		zap.Int64("order_id", completed.ID),
		zap.Int("items", len(created)))
	return o.stateLocked(), nil
}

func (o *Orchestrator) insertOrder(ctx context.Context, paid d.BasketSnapshot) (*d.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, o.backend.timeout)
	defer cancel()

	order, err := o.backend.backend.InsertOrder(ctx, d.NewOrder{Total: paid.Total, UserID: o.userID})
	if err != nil {
		return nil, newError(KindBackendUnavailable, "insert order", err)
	}
	return order, nil
}

func (o *Orchestrator) insertOrderItems(ctx context.Context, orderID int64, items []d.NewOrderItem) ([]d.OrderItem, error) {
	ctx, cancel := context.WithTimeout(ctx, o.backend.timeout)
	defer cancel()

	created, err := o.backend.backend.InsertOrderItems(ctx, items)
	if err != nil {
		e := newError(KindPartialOrderPersistence, "insert order items", err)
		e.OrderID = orderID
		return nil, e
	}
	return created, nil
}
