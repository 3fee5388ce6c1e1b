package http

import (
	"context"
	"fmt"
	"sync"

	d "github.com/fjod/foodcart/domain"
	"github.com/fjod/foodcart/internal/backend"
	"github.com/fjod/foodcart/internal/basket"
	"github.com/fjod/foodcart/internal/catalog"
	"github.com/fjod/foodcart/internal/gateway"
	"github.com/shopspring/decimal"
)

func product(id int64, name, price string) d.Product {
	return d.Product{ID: id, Name: name, Price: decimal.RequireFromString(price)}
}

type mockCatalog struct {
	products   map[int64]d.Product
	categories []d.Category
	menus      map[int64]d.CategoryMenu
	err        error
}

func newMockCatalog(products ...d.Product) *mockCatalog {
	m := &mockCatalog{products: make(map[int64]d.Product), menus: make(map[int64]d.CategoryMenu)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockCatalog) List(ctx context.Context) ([]d.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []d.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockCatalog) Get(ctx context.Context, id int64) (d.Product, error) {
	if m.err != nil {
		return d.Product{}, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return d.Product{}, fmt.Errorf("%w: %d", catalog.ErrProductNotFound, id)
	}
	return p, nil
}

func (m *mockCatalog) Categories(ctx context.Context) ([]d.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}

func (m *mockCatalog) ByCategory(ctx context.Context, categoryID int64) (d.CategoryMenu, error) {
	if m.err != nil {
		return d.CategoryMenu{}, m.err
	}
	menu, ok := m.menus[categoryID]
	if !ok {
		return d.CategoryMenu{}, fmt.Errorf("%w: %d", catalog.ErrCategoryNotFound, categoryID)
	}
	return menu, nil
}

type mockSessions struct {
	mu       sync.Mutex
	stores   map[string]*basket.Store
	persists map[string]int
}

func newMockSessions() *mockSessions {
	return &mockSessions{
		stores:   make(map[string]*basket.Store),
		persists: make(map[string]int),
	}
}

func (m *mockSessions) Basket(ctx context.Context, userID string) *basket.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[userID]
	if !ok {
		s = basket.NewStore()
		m.stores[userID] = s
	}
	return s
}

func (m *mockSessions) Persist(ctx context.Context, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persists[userID]++
}

func (m *mockSessions) persisted(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persists[userID]
}

type mockOrderStore struct {
	mu       sync.Mutex
	profiles map[string]d.Profile
	orders   map[int64]d.Order
	err      error

	listedStatuses []d.OrderStatus
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{
		profiles: make(map[string]d.Profile),
		orders:   make(map[int64]d.Order),
	}
}

func (m *mockOrderStore) GetProfile(ctx context.Context, userID string) (*d.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, backend.ErrProfileNotFound
	}
	return &p, nil
}

func (m *mockOrderStore) GetOrder(ctx context.Context, id int64) (*d.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", backend.ErrOrderNotFound, id)
	}
	return &o, nil
}

func (m *mockOrderStore) ListOrdersByUser(ctx context.Context, userID string) ([]d.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []d.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderStore) ListOrdersByStatus(ctx context.Context, statuses []d.OrderStatus) ([]d.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.listedStatuses = statuses
	var out []d.Order
	for _, o := range m.orders {
		for _, s := range statuses {
			if o.Status == s {
				out = append(out, o)
			}
		}
	}
	return out, nil
}

func (m *mockOrderStore) UpdateOrderStatus(ctx context.Context, id int64, status d.OrderStatus) (*d.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", backend.ErrOrderNotFound, id)
	}
	o.Status = status
	m.orders[id] = o
	return &o, nil
}

const checkoutSite = "https://pay.example.com"

// mockGateway settles every transaction as a payment of the last created order.
type mockGateway struct {
	mu        sync.Mutex
	statusID  string
	createErr error
	amount    int64
}

func (m *mockGateway) AccessToken(ctx context.Context) (string, error) {
	return "token", nil
}

func (m *mockGateway) CreateOrder(ctx context.Context, accessToken string, order gateway.OrderRequest) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.amount = order.Amount
	return "1234567890", nil
}

func (m *mockGateway) Transaction(ctx context.Context, accessToken, transactionID string) (*gateway.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &gateway.Transaction{
		ID:        transactionID,
		StatusID:  m.statusID,
		OrderCode: "1234567890",
		Amount:    decimal.New(m.amount, -2),
	}, nil
}

func (m *mockGateway) CheckoutURL(orderCode string) string {
	return checkoutSite + "/web/checkout?ref=" + orderCode
}

func (m *mockGateway) ParseResult(rawURL string) (string, bool, error) {
	return gateway.ParseResultFor(checkoutSite, rawURL)
}

type mockBackend struct {
	profile  d.Profile
	itemsErr error
	nextID   int64
}

func (m *mockBackend) GetProfile(ctx context.Context, userID string) (*d.Profile, error) {
	p := m.profile
	p.ID = userID
	return &p, nil
}

func (m *mockBackend) InsertOrder(ctx context.Context, order d.NewOrder) (*d.Order, error) {
	m.nextID++
	return &d.Order{ID: m.nextID, UserID: order.UserID, Total: order.Total, Status: d.OrderStatusNew}, nil
}

func (m *mockBackend) InsertOrderItems(ctx context.Context, items []d.NewOrderItem) ([]d.OrderItem, error) {
	if m.itemsErr != nil {
		return nil, m.itemsErr
	}
	out := make([]d.OrderItem, len(items))
	for i, it := range items {
		out[i] = d.OrderItem{ID: int64(i + 1), OrderID: it.OrderID, ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out, nil
}
