package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo_HappyPath(t *testing.T) {
	path := []CheckoutStatus{
		CheckoutStatusIdle,
		CheckoutStatusNegotiatingPayment,
		CheckoutStatusAwaitingUserPayment,
		CheckoutStatusVerifyingTransaction,
		CheckoutStatusPersistingOrder,
		CheckoutStatusCompleted,
		CheckoutStatusNegotiatingPayment,
	}
	for i := 1; i < len(path); i++ {
		assert.True(t, CanTransitionTo(path[i-1], path[i]), "%s -> %s", path[i-1], path[i])
	}
}

func TestCanTransitionTo_NoPersistWithoutVerification(t *testing.T) {
	assert.False(t, CanTransitionTo(CheckoutStatusAwaitingUserPayment, CheckoutStatusPersistingOrder))
	assert.False(t, CanTransitionTo(CheckoutStatusNegotiatingPayment, CheckoutStatusPersistingOrder))
	assert.False(t, CanTransitionTo(CheckoutStatusIdle, CheckoutStatusPersistingOrder))
	assert.False(t, CanTransitionTo(CheckoutStatusVerifyingTransaction, CheckoutStatusCompleted))
}

func TestCanTransitionTo_InFlightCannotRestart(t *testing.T) {
	for _, s := range []CheckoutStatus{
		CheckoutStatusNegotiatingPayment,
		CheckoutStatusAwaitingUserPayment,
		CheckoutStatusVerifyingTransaction,
		CheckoutStatusPersistingOrder,
	} {
		assert.False(t, CanTransitionTo(s, CheckoutStatusNegotiatingPayment), s.String())
		assert.False(t, s.IsTerminal(), s.String())
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, CheckoutStatusIdle.IsTerminal())
	assert.True(t, CheckoutStatusCompleted.IsTerminal())
	assert.True(t, CheckoutStatusFailed.IsTerminal())
}
