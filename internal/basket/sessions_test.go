package basket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	d "github.com/fjod/foodcart/domain"
	"github.com/fjod/foodcart/internal/cache"
	"github.com/fjod/foodcart/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockRepository struct {
	m       sync.Mutex
	baskets map[string]d.BasketSnapshot
	getErr  error
	saveErr error
	gets    atomic.Int32
}

func newMockRepository() *mockRepository {
	return &mockRepository{baskets: make(map[string]d.BasketSnapshot)}
}

func (m *mockRepository) GetBasket(_ context.Context, userID string) (*d.BasketSnapshot, error) {
	m.gets.Add(1)
	time.Sleep(5 * time.Millisecond)
	m.m.Lock()
	defer m.m.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.baskets[userID]
	if !ok {
		return nil, repository.ErrBasketNotFound
	}
	return &b, nil
}

func (m *mockRepository) SaveBasket(_ context.Context, b *d.BasketSnapshot) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.baskets[b.UserID] = *b
	return nil
}

func (m *mockRepository) DeleteBasket(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.baskets[userID]; !ok {
		return repository.ErrBasketNotFound
	}
	delete(m.baskets, userID)
	return nil
}

type mockCache struct {
	m       sync.Mutex
	entries map[string]d.BasketSnapshot
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]d.BasketSnapshot)}
}

func (c *mockCache) Get(_ context.Context, userID string) (*d.BasketSnapshot, error) {
	c.m.Lock()
	defer c.m.Unlock()
	b, ok := c.entries[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &b, nil
}

func (c *mockCache) Set(_ context.Context, userID string, b *d.BasketSnapshot) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.entries[userID] = *b
	return nil
}

func (c *mockCache) Delete(_ context.Context, userID string) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.deletes++
	delete(c.entries, userID)
	return nil
}

func pizza() d.Product {
	return d.Product{ID: 1, Name: "Pizza", Price: decimal.RequireFromString("10.00")}
}

func TestSessions_EmptyWhenNothingStored(t *testing.T) {
	s := NewSessions(newMockRepository(), newMockCache(), nil)

	snap := s.Basket(context.Background(), "user-1").Snapshot()

	assert.True(t, snap.IsEmpty())
	assert.True(t, snap.Total.IsZero())
}

func TestSessions_SameStoreForUser(t *testing.T) {
	s := NewSessions(nil, nil, nil)
	ctx := context.Background()

	a := s.Basket(ctx, "user-1")
	b := s.Basket(ctx, "user-1")
	other := s.Basket(ctx, "user-2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}

func TestSessions_PersistAndReload(t *testing.T) {
	repo := newMockRepository()
	c := newMockCache()
	ctx := context.Background()

	first := NewSessions(repo, c, nil)
	first.Basket(ctx, "user-1").AddProduct(pizza())
	first.Basket(ctx, "user-1").AddProduct(pizza())
	first.Persist(ctx, "user-1")

	restarted := NewSessions(repo, c, nil)
	snap := restarted.Basket(ctx, "user-1").Snapshot()

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.ItemCount)
	assert.True(t, snap.Total.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, 1, c.deletes)
}

func TestSessions_LoadsFromCacheFirst(t *testing.T) {
	repo := newMockRepository()
	c := newMockCache()
	c.entries["user-1"] = d.BasketSnapshot{UserID: "user-1", Lines: []d.BasketLine{{Product: pizza(), Quantity: 3}}}

	s := NewSessions(repo, c, nil)
	snap := s.Basket(context.Background(), "user-1").Snapshot()

	assert.Equal(t, 3, snap.ItemCount)
	assert.Equal(t, int32(0), repo.gets.Load())
}

func TestSessions_RepoHitFillsCache(t *testing.T) {
	repo := newMockRepository()
	repo.baskets["user-1"] = d.BasketSnapshot{UserID: "user-1", Lines: []d.BasketLine{{Product: pizza(), Quantity: 1}}}
	c := newMockCache()

	NewSessions(repo, c, nil).Basket(context.Background(), "user-1")

	_, err := c.Get(context.Background(), "user-1")
	assert.NoError(t, err)
}

func TestSessions_PersistEmptyDeletes(t *testing.T) {
	repo := newMockRepository()
	ctx := context.Background()
	s := NewSessions(repo, newMockCache(), nil)

	s.Basket(ctx, "user-1").AddProduct(pizza())
	s.Persist(ctx, "user-1")
	require.Contains(t, repo.baskets, "user-1")

	s.Basket(ctx, "user-1").Clear()
	s.Persist(ctx, "user-1")
	assert.NotContains(t, repo.baskets, "user-1")

	// deleting an already absent basket is not an error
	s.Persist(ctx, "user-1")
}

func TestSessions_LoadFailureStartsEmptyAndLogs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := newMockRepository()
	repo.getErr = errors.New("mongo down")

	s := NewSessions(repo, newMockCache(), zap.New(core))
	snap := s.Basket(context.Background(), "user-1").Snapshot()

	assert.True(t, snap.IsEmpty())
	assert.Equal(t, 1, logs.FilterMessage("basket load failed, starting empty").Len())
}

func TestSessions_PersistFailureKeepsInMemoryBasket(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := newMockRepository()
	repo.saveErr = errors.New("write failed")
	ctx := context.Background()

	s := NewSessions(repo, newMockCache(), zap.New(core))
	s.Basket(ctx, "user-1").AddProduct(pizza())
	s.Persist(ctx, "user-1")

	assert.Equal(t, 1, s.Basket(ctx, "user-1").Snapshot().ItemCount)
	assert.Equal(t, 1, logs.FilterMessage("basket persist failed").Len())
}

func TestSessions_ConcurrentFirstLoadSingleStore(t *testing.T) {
	repo := newMockRepository()
	s := NewSessions(repo, nil, nil)

	var wg sync.WaitGroup
	stores := make([]*Store, 20)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stores[i] = s.Basket(context.Background(), "user-1")
		}(i)
	}
	wg.Wait()

	for _, st := range stores {
		assert.Same(t, stores[0], st)
	}
}
