package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProductID    = errors.New("product id must be positive")
	ErrInvalidProductName  = errors.New("product name is required")
	ErrInvalidProductPrice = errors.New("product price must not be negative")
)

// Product is menu reference data owned by the data backend.
type Product struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image *string         `json:"img,omitempty"`
	Info  *string         `json:"info,omitempty"`
}

func (p Product) Validate() error {
	if p.ID <= 0 {
		return ErrInvalidProductID
	}
	if p.Name == "" {
		return ErrInvalidProductName
	}
	if p.Price.IsNegative() {
		return ErrInvalidProductPrice
	}
	return nil
}
