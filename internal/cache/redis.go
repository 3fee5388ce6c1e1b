package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	d "github.com/fjod/foodcart/domain"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "foodcart:basket:"
	defaultTTL    = 15 * time.Minute
	defaultJitter = 5 * time.Minute
)

// RedisCache stores basket snapshots as JSON. Entries expire after ttl plus up to jitter,
// so baskets cached together do not all expire together.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	jitter time.Duration
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    defaultTTL,
		jitter: defaultJitter,
	}
}

// Get returns ErrCacheMiss for absent entries and for entries that no longer decode; the latter are dropped.
func (r *RedisCache) Get(ctx context.Context, userID string) (*d.BasketSnapshot, error) {
	key := cacheKey(userID)
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("read cached basket of %s: %w", userID, err)
	}

	snapshot := new(d.BasketSnapshot)
	if err := json.Unmarshal(raw, snapshot); err != nil {
		r.client.Unlink(ctx, key)
		return nil, ErrCacheMiss
	}
	return snapshot, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, basket *d.BasketSnapshot) error {
	raw, err := json.Marshal(basket)
	if err != nil {
		return fmt.Errorf("encode basket of %s: %w", userID, err)
	}

	expiry := r.ttl
	if r.jitter > 0 {
		expiry += rand.N(r.jitter)
	}
	if err := r.client.Set(ctx, cacheKey(userID), raw, expiry).Err(); err != nil {
		return fmt.Errorf("cache basket of %s: %w", userID, err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Unlink(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("evict basket of %s: %w", userID, err)
	}
	return nil
}

func cacheKey(userID string) string {
	return keyPrefix + userID
}
