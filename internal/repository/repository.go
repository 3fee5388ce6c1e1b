package repository

import (
	"context"
	"errors"

	d "github.com/fjod/foodcart/domain"
)

var ErrBasketNotFound = errors.New("basket not found")

// BasketRepository stores basket snapshots so a basket survives an app restart.
type BasketRepository interface {
	GetBasket(ctx context.Context, userID string) (*d.BasketSnapshot, error)
	SaveBasket(ctx context.Context, basket *d.BasketSnapshot) error
	DeleteBasket(ctx context.Context, userID string) error
}
