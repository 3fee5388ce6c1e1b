package domain

// Customer is the contact block sent to the payment gateway.
type Customer struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

// PaymentOrder is an in-flight payment negotiation. It lives only for one checkout attempt.
type PaymentOrder struct {
	CheckoutID  string         `json:"checkout_id"`
	Amount      int64          `json:"amount"`
	Currency    Currency       `json:"-"`
	Customer    Customer       `json:"customer"`
	OrderCode   string         `json:"order_code"`
	AccessToken string         `json:"-"`
	CheckoutURL string         `json:"checkout_url"`
	Basket      BasketSnapshot `json:"-"`
}
