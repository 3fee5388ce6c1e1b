package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

// StatusFinalized is the only transaction status treated as a completed payment.
const StatusFinalized = "F"

type Transaction struct {
	ID           string          `json:"-"`
	StatusID     string          `json:"statusId"`
	Amount       decimal.Decimal `json:"amount"`
	OrderCode    json.Number     `json:"orderCode"`
	Email        string          `json:"email"`
	FullName     string          `json:"fullName"`
	CurrencyCode string          `json:"currencyCode"`
	InsDate      string          `json:"insDate"`
}

func (t Transaction) Finalized() bool {
	return t.StatusID == StatusFinalized
}

// Transaction fetches a transaction using the access token issued for its payment order.
func (c *Client) Transaction(ctx context.Context, accessToken, transactionID string) (*Transaction, error) {
	const op = "verify transaction"

	body, err := c.do(ctx, op, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.cfg.APIURL+"/checkout/v2/transactions/"+url.PathEscape(transactionID), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var tx Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	tx.ID = transactionID
	return &tx, nil
}
