// Package backend is the hosted data backend: profiles, the menu, orders and order items in Postgres.
package backend

import (
	"context"
	"errors"

	d "github.com/fjod/foodcart/domain"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrOrderNotFound    = errors.New("order not found")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	SSLMode           string
	MigrationsDirPath string
}

// Store is the backend surface used by the checkout flow and the HTTP API.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*d.Profile, error)
	ListProducts(ctx context.Context) ([]d.Product, error)
	GetProduct(ctx context.Context, id int64) (*d.Product, error)
	ListCategories(ctx context.Context) ([]d.Category, error)
	GetCategoryMenu(ctx context.Context, categoryID int64) (*d.CategoryMenu, error)
	InsertOrder(ctx context.Context, order d.NewOrder) (*d.Order, error)
	InsertOrderItems(ctx context.Context, items []d.NewOrderItem) ([]d.OrderItem, error)
	GetOrder(ctx context.Context, id int64) (*d.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]d.Order, error)
	ListOrdersByStatus(ctx context.Context, statuses []d.OrderStatus) ([]d.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status d.OrderStatus) (*d.Order, error)
}

var _ Store = (*Repository)(nil)
