package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	d "github.com/fjod/foodcart/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// basketDocument is the stored shape. Prices are kept as decimal strings; aggregates are
// not stored and get recomputed on load.
type basketDocument struct {
	UserID    string         `bson:"user_id"`
	Lines     []lineDocument `bson:"lines"`
	CreatedAt time.Time      `bson:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

type lineDocument struct {
	ProductID int64   `bson:"product_id"`
	Name      string  `bson:"name"`
	Price     string  `bson:"price"`
	Image     *string `bson:"img,omitempty"`
	Info      *string `bson:"info,omitempty"`
	Quantity  int     `bson:"quantity"`
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) BasketRepository {
	return &mongoRepository{
		collection: db.Collection("baskets"),
	}
}

func (m mongoRepository) GetBasket(ctx context.Context, userID string) (*d.BasketSnapshot, error) {
	var doc basketDocument
	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBasketNotFound
		}
		return nil, fmt.Errorf("failed to get basket: %w", err)
	}
	return toSnapshot(doc)
}

func (m mongoRepository) SaveBasket(ctx context.Context, basket *d.BasketSnapshot) error {
	now := time.Now()
	lines := make([]lineDocument, 0, len(basket.Lines))
	for _, l := range basket.Lines {
		lines = append(lines, lineDocument{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price.String(),
			Image:     l.Product.Image,
			Info:      l.Product.Info,
			Quantity:  l.Quantity,
		})
	}

	filter := bson.M{"user_id": basket.UserID}
	update := bson.M{
		"$set": bson.M{
			"lines":      lines,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert basket: %w", err)
	}
	return nil
}

func (m mongoRepository) DeleteBasket(ctx context.Context, userID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete basket: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrBasketNotFound
	}
	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// EnsureIndexes creates the basket collection indexes when repo is the Mongo implementation.
func EnsureIndexes(ctx context.Context, repo BasketRepository) error {
	if m, ok := repo.(*mongoRepository); ok {
		return m.CreateIndexes(ctx)
	}
	return nil
}

func toSnapshot(doc basketDocument) (*d.BasketSnapshot, error) {
	snapshot := &d.BasketSnapshot{
		UserID:    doc.UserID,
		Lines:     make([]d.BasketLine, 0, len(doc.Lines)),
		UpdatedAt: doc.UpdatedAt,
	}
	for _, l := range doc.Lines {
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price for product %d: %w", l.ProductID, err)
		}
		snapshot.Lines = append(snapshot.Lines, d.BasketLine{
			Product: d.Product{
				ID:    l.ProductID,
				Name:  l.Name,
				Price: price,
				Image: l.Image,
				Info:  l.Info,
			},
			Quantity: l.Quantity,
		})
	}
	snapshot.ItemCount, snapshot.Total = snapshot.Recompute()
	return snapshot, nil
}
