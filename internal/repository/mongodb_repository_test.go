package repository

import (
	"context"
	"testing"
	"time"

	d "github.com/fjod/foodcart/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) BasketRepository {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, EnsureIndexes(ctx, repo))
	return repo
}

func basketFor(userID string, lines ...d.BasketLine) *d.BasketSnapshot {
	b := &d.BasketSnapshot{UserID: userID, Lines: lines}
	b.ItemCount, b.Total = b.Recompute()
	return b
}

func line(id int64, price string, qty int) d.BasketLine {
	return d.BasketLine{
		Product:  d.Product{ID: id, Name: "product", Price: decimal.RequireFromString(price)},
		Quantity: qty,
	}
}

func TestGetBasket_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	basket, err := repo.GetBasket(context.Background(), "nobody")

	assert.ErrorIs(t, err, ErrBasketNotFound)
	assert.Nil(t, basket)
}

func TestSaveBasket_RoundTrip(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveBasket(ctx, basketFor("user-1", line(1, "2.50", 2), line(2, "0.99", 1))))

	got, err := repo.GetBasket(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, int64(1), got.Lines[0].Product.ID)
	assert.Equal(t, 3, got.ItemCount)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("5.99")))
}

func TestSaveBasket_Overwrites(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveBasket(ctx, basketFor("user-1", line(1, "2.50", 2))))
	require.NoError(t, repo.SaveBasket(ctx, basketFor("user-1", line(3, "4.00", 1))))

	got, err := repo.GetBasket(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int64(3), got.Lines[0].Product.ID)
}

func TestDeleteBasket(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveBasket(ctx, basketFor("user-1", line(1, "1", 1))))
	require.NoError(t, repo.DeleteBasket(ctx, "user-1"))

	_, err := repo.GetBasket(ctx, "user-1")
	assert.ErrorIs(t, err, ErrBasketNotFound)
	assert.ErrorIs(t, repo.DeleteBasket(ctx, "user-1"), ErrBasketNotFound)
}

func TestContextCancellation(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()
	time.Sleep(10 * time.Millisecond)

	_, err := repo.GetBasket(ctx, "user-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}
