package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BasketLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is price × quantity for the line.
func (l BasketLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// BasketSnapshot is a point-in-time copy of a basket. Lines keep insertion order.
type BasketSnapshot struct {
	UserID    string          `json:"user_id,omitempty"`
	Lines     []BasketLine    `json:"lines"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s BasketSnapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Recompute returns item count and total summed over lines, ignoring the stored aggregates.
func (s BasketSnapshot) Recompute() (int, decimal.Decimal) {
	count := 0
	total := decimal.Zero
	for _, l := range s.Lines {
		count += l.Quantity
		total = total.Add(l.Subtotal())
	}
	return count, total
}
