// Package catalog serves menu reads (products and categories) through a short-lived in-memory cache.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	d "github.com/fjod/foodcart/domain"
	"github.com/fjod/foodcart/internal/backend"
	"github.com/jellydator/ttlcache/v3"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

const (
	DefaultTTL = 5 * time.Minute
	allKey     = "all"
)

type Source interface {
	ListProducts(ctx context.Context) ([]d.Product, error)
	GetProduct(ctx context.Context, id int64) (*d.Product, error)
	ListCategories(ctx context.Context) ([]d.Category, error)
	GetCategoryMenu(ctx context.Context, categoryID int64) (*d.CategoryMenu, error)
}

type Catalog struct {
	source     Source
	products   *ttlcache.Cache[string, []d.Product]
	byID       *ttlcache.Cache[int64, d.Product]
	categories *ttlcache.Cache[string, []d.Category]
	menus      *ttlcache.Cache[int64, d.CategoryMenu]
}

func New(source Source, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Catalog{
		source:     source,
		products:   ttlcache.New[string, []d.Product](ttlcache.WithTTL[string, []d.Product](ttl)),
		byID:       ttlcache.New[int64, d.Product](ttlcache.WithTTL[int64, d.Product](ttl)),
		categories: ttlcache.New[string, []d.Category](ttlcache.WithTTL[string, []d.Category](ttl)),
		menus:      ttlcache.New[int64, d.CategoryMenu](ttlcache.WithTTL[int64, d.CategoryMenu](ttl)),
	}
}

func (c *Catalog) List(ctx context.Context) ([]d.Product, error) {
	if item := c.products.Get(allKey); item != nil {
		return item.Value(), nil
	}

	products, err := c.source.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	c.products.Set(allKey, products, ttlcache.DefaultTTL)
	for _, p := range products {
		c.byID.Set(p.ID, p, ttlcache.DefaultTTL)
	}
	return products, nil
}

func (c *Catalog) Get(ctx context.Context, id int64) (d.Product, error) {
	if item := c.byID.Get(id); item != nil {
		return item.Value(), nil
	}

	p, err := c.source.GetProduct(ctx, id)
	if errors.Is(err, backend.ErrProductNotFound) {
		return d.Product{}, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	if err != nil {
		return d.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	c.byID.Set(p.ID, *p, ttlcache.DefaultTTL)
	return *p, nil
}

func (c *Catalog) Categories(ctx context.Context) ([]d.Category, error) {
	if item := c.categories.Get(allKey); item != nil {
		return item.Value(), nil
	}

	categories, err := c.source.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	c.categories.Set(allKey, categories, ttlcache.DefaultTTL)
	return categories, nil
}

// ByCategory returns the products of one category grouped by product type.
func (c *Catalog) ByCategory(ctx context.Context, categoryID int64) (d.CategoryMenu, error) {
	if item := c.menus.Get(categoryID); item != nil {
		return item.Value(), nil
	}

	menu, err := c.source.GetCategoryMenu(ctx, categoryID)
	if errors.Is(err, backend.ErrCategoryNotFound) {
		return d.CategoryMenu{}, fmt.Errorf("%w: %d", ErrCategoryNotFound, categoryID)
	}
	if err != nil {
		return d.CategoryMenu{}, fmt.Errorf("get category %d: %w", categoryID, err)
	}
	c.menus.Set(categoryID, *menu, ttlcache.DefaultTTL)
	for _, section := range menu.Sections {
		for _, p := range section.Products {
			c.byID.Set(p.ID, p, ttlcache.DefaultTTL)
		}
	}
	return *menu, nil
}

// Invalidate drops every cached menu entry.
func (c *Catalog) Invalidate() {
	c.products.DeleteAll()
	c.byID.DeleteAll()
	c.categories.DeleteAll()
	c.menus.DeleteAll()
}
