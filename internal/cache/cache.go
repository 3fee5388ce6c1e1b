package cache

import (
	"context"
	"errors"

	d "github.com/fjod/foodcart/domain"
)

// BasketCache holds recent basket snapshots in front of the durable store.
type BasketCache interface {
	Get(ctx context.Context, userID string) (*d.BasketSnapshot, error)
	Set(ctx context.Context, userID string, basket *d.BasketSnapshot) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
