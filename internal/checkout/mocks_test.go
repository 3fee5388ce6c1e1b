package checkout

import (
	"context"
	"sync"

	d "github.com/fjod/foodcart/domain"
	"github.com/fjod/foodcart/internal/gateway"
)

// MockGateway implements PaymentGateway for testing
type MockGateway struct {
	mu sync.Mutex

	Token       string
	TokenErr    error
	OrderCode   string
	OrderErr    error
	Tx          *gateway.Transaction
	TxErr       error
	TokenCalls  int
	OrderCalls  int
	TxCalls     int
	LastOrder   gateway.OrderRequest
	LastTxToken string
	// BlockToken, when set, holds AccessToken until it is closed.
	BlockToken chan struct{}
	// OnTransaction runs after a transaction lookup, before it returns.
	OnTransaction func()
}

func (m *MockGateway) AccessToken(ctx context.Context) (string, error) {
	if m.BlockToken != nil {
		select {
		case <-m.BlockToken:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TokenCalls++
	return m.Token, m.TokenErr
}

func (m *MockGateway) CreateOrder(_ context.Context, _ string, order gateway.OrderRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderCalls++
	m.LastOrder = order
	return m.OrderCode, m.OrderErr
}

func (m *MockGateway) Transaction(_ context.Context, accessToken, transactionID string) (*gateway.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TxCalls++
	m.LastTxToken = accessToken
	if m.TxErr != nil {
		return nil, m.TxErr
	}
	tx := *m.Tx
	tx.ID = transactionID
	if m.OnTransaction != nil {
		m.OnTransaction()
	}
	return &tx, nil
}

const checkoutSite = "https://demo.vivapayments.com"

func (m *MockGateway) CheckoutURL(orderCode string) string {
	return checkoutSite + "/web/checkout?ref=" + orderCode
}

func (m *MockGateway) ParseResult(rawURL string) (string, bool, error) {
	return gateway.ParseResultFor(checkoutSite, rawURL)
}

// MockBackend implements Backend for testing
type MockBackend struct {
	mu sync.Mutex

	Profile        *d.Profile
	ProfileErr     error
	OrderErr       error
	ItemsErr       error
	NextOrderID    int64
	OrderCalls     int
	ItemsCalls     int
	InsertedOrders []d.NewOrder
	InsertedItems  [][]d.NewOrderItem
}

func (m *MockBackend) GetProfile(_ context.Context, _ string) (*d.Profile, error) {
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	return m.Profile, nil
}

func (m *MockBackend) InsertOrder(ctx context.Context, order d.NewOrder) (*d.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderCalls++
	if m.OrderErr != nil {
		return nil, m.OrderErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.InsertedOrders = append(m.InsertedOrders, order)
	m.NextOrderID++
	return &d.Order{ID: m.NextOrderID, Total: order.Total, UserID: order.UserID, Status: d.OrderStatusNew}, nil
}

func (m *MockBackend) InsertOrderItems(ctx context.Context, items []d.NewOrderItem) ([]d.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsCalls++
	if m.ItemsErr != nil {
		return nil, m.ItemsErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.InsertedItems = append(m.InsertedItems, items)
	created := make([]d.OrderItem, len(items))
	for i, it := range items {
		created[i] = d.OrderItem{ID: int64(i + 1), OrderID: it.OrderID, ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return created, nil
}

// MockBasket implements Basket for testing
type MockBasket struct {
	mu         sync.Mutex
	Snap       d.BasketSnapshot
	ClearCalls int
}

func (m *MockBasket) Snapshot() d.BasketSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Snap
}

func (m *MockBasket) Clear() d.BasketSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls++
	m.Snap = d.BasketSnapshot{}
	return m.Snap
}
