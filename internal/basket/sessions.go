package basket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/foodcart/internal/cache"
	"github.com/fjod/foodcart/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Sessions hands out one Store per user and keeps it in sync with the persisted snapshot.
// repo and cache may be nil, in which case baskets live in memory only.
type Sessions struct {
	mu     sync.Mutex
	stores map[string]*Store

	repo   repository.BasketRepository
	cache  cache.BasketCache
	sfg    singleflight.Group // collapses concurrent first loads for one user
	logger *zap.Logger
}

func NewSessions(repo repository.BasketRepository, c cache.BasketCache, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		stores: make(map[string]*Store),
		repo:   repo,
		cache:  c,
		logger: logger,
	}
}

// Basket returns the user's store, loading it on first access. Load failures are logged
// and yield an empty basket.
func (s *Sessions) Basket(ctx context.Context, userID string) *Store {
	s.mu.Lock()
	store, ok := s.stores[userID]
	s.mu.Unlock()
	if ok {
		return store
	}

	v, _, _ := s.sfg.Do(userID, func() (interface{}, error) {
		s.mu.Lock()
		if existing, ok := s.stores[userID]; ok {
			s.mu.Unlock()
			return existing, nil
		}
		s.mu.Unlock()

		loaded := s.load(ctx, userID)

		s.mu.Lock()
		defer s.mu.Unlock()
		if existing, ok := s.stores[userID]; ok {
			return existing, nil
		}
		s.stores[userID] = loaded
		return loaded, nil
	})
	return v.(*Store)
}

func (s *Sessions) load(ctx context.Context, userID string) *Store {
	if s.cache != nil {
		snapshot, err := s.cache.Get(ctx, userID)
		if err == nil {
			return NewStoreFrom(*snapshot)
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("basket cache get failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	if s.repo == nil {
		return NewStore()
	}

	snapshot, err := s.repo.GetBasket(ctx, userID)
	if errors.Is(err, repository.ErrBasketNotFound) {
		return NewStore()
	}
	if err != nil {
		s.logger.Error("basket load failed, starting empty", zap.String("user_id", userID), zap.Error(err))
		return NewStore()
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, snapshot); err != nil {
			s.logger.Warn("basket cache set failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return NewStoreFrom(*snapshot)
}

// Persist writes the user's current basket to the durable store and invalidates the cache.
// An empty basket removes the stored document. Failures are logged only.
func (s *Sessions) Persist(ctx context.Context, userID string) {
	if s.repo == nil {
		return
	}
	snapshot := s.Basket(ctx, userID).Snapshot()
	snapshot.UserID = userID

	var err error
	if snapshot.IsEmpty() {
		err = s.repo.DeleteBasket(ctx, userID)
		if errors.Is(err, repository.ErrBasketNotFound) {
			err = nil
		}
	} else {
		err = s.repo.SaveBasket(ctx, &snapshot)
	}
	if err != nil {
		s.logger.Error("basket persist failed", zap.String("user_id", userID), zap.Error(err))
	}

	s.invalidateCache(userID)
}

func (s *Sessions) invalidateCache(userID string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("basket cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
