package checkout

import (
	"context"
	"sync"

	d "github.com/fjod/foodcart/domain"
	"go.uber.org/zap"
)

// BasketSource resolves a user's basket.
type BasketSource interface {
	Basket(ctx context.Context, userID string) Basket
}

// BasketSourceFunc adapts a function to BasketSource.
type BasketSourceFunc func(ctx context.Context, userID string) Basket

func (f BasketSourceFunc) Basket(ctx context.Context, userID string) Basket {
	return f(ctx, userID)
}

// Registry keeps one Orchestrator per user so a basket never has two checkouts.
type Registry struct {
	mu            sync.Mutex
	orchestrators map[string]*Orchestrator

	baskets  BasketSource
	gateway  *GatewayHandler
	backend  *BackendHandler
	currency d.Currency
	logger   *zap.Logger
}

func NewRegistry(baskets BasketSource, gw *GatewayHandler, be *BackendHandler, currency d.Currency, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		orchestrators: make(map[string]*Orchestrator),
		baskets:       baskets,
		gateway:       gw,
		backend:       be,
		currency:      currency,
		logger:        logger,
	}
}

func (r *Registry) For(ctx context.Context, userID string) *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.orchestrators[userID]; ok {
		return o
	}
	o := NewOrchestrator(userID, r.baskets.Basket(ctx, userID), r.gateway, r.backend, r.currency, r.logger)
	r.orchestrators[userID] = o
	return o
}
