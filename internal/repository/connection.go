package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectTimeout = 10 * time.Second
	maxPoolSize    = 50
)

// ConnectMongoDB opens a client and confirms the primary is reachable before returning database.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetAppName("foodcart-basket-api").
		SetServerSelectionTimeout(connectTimeout/2).
		SetMaxPoolSize(maxPoolSize).
		SetRetryWrites(true))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", database, err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping %s: %w", database, err)
	}
	return client.Database(database), nil
}
