package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle                 CheckoutStatus = "IDLE"
	CheckoutStatusNegotiatingPayment   CheckoutStatus = "NEGOTIATING_PAYMENT"
	CheckoutStatusAwaitingUserPayment  CheckoutStatus = "AWAITING_USER_PAYMENT"
	CheckoutStatusVerifyingTransaction CheckoutStatus = "VERIFYING_TRANSACTION"
	CheckoutStatusPersistingOrder      CheckoutStatus = "PERSISTING_ORDER"
	CheckoutStatusCompleted            CheckoutStatus = "COMPLETED"
	CheckoutStatusFailed               CheckoutStatus = "FAILED"
)

var transitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusIdle:                 {CheckoutStatusNegotiatingPayment},
	CheckoutStatusNegotiatingPayment:   {CheckoutStatusAwaitingUserPayment, CheckoutStatusFailed},
	CheckoutStatusAwaitingUserPayment:  {CheckoutStatusVerifyingTransaction, CheckoutStatusFailed},
	CheckoutStatusVerifyingTransaction: {CheckoutStatusPersistingOrder, CheckoutStatusFailed},
	CheckoutStatusPersistingOrder:      {CheckoutStatusCompleted, CheckoutStatusFailed},
	CheckoutStatusCompleted:            {CheckoutStatusNegotiatingPayment},
	// a failed item insert can be resumed without paying again
	CheckoutStatusFailed: {CheckoutStatusNegotiatingPayment, CheckoutStatusPersistingOrder},
}

// CanTransitionTo reports whether the checkout state machine allows moving from s to next.
func CanTransitionTo(s, next CheckoutStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a new checkout may start from s.
func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusIdle || s == CheckoutStatusCompleted || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
