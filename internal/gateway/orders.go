package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	d "github.com/fjod/foodcart/domain"
)

type OrderRequest struct {
	Amount              int64      `json:"amount"`
	Customer            d.Customer `json:"customer"`
	CurrencyCode        string     `json:"currencyCode"`
	PaymentNotification bool       `json:"paymentNotification"`
	MerchantTrns        string     `json:"merchantTrns,omitempty"`
}

type orderResponse struct {
	OrderCode json.Number `json:"orderCode"`
}

// CreateOrder registers a payment order and returns its orderCode.
func (c *Client) CreateOrder(ctx context.Context, accessToken string, order OrderRequest) (string, error) {
	const op = "create payment order"

	payload, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", op, err)
	}

	body, err := c.do(ctx, op, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.APIURL+"/checkout/v2/orders", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var or orderResponse
	if err := json.Unmarshal(body, &or); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if or.OrderCode == "" {
		return "", fmt.Errorf("%s: response has no orderCode", op)
	}
	return or.OrderCode.String(), nil
}
