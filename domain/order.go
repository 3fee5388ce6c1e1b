package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "New"
	OrderStatusCooking    OrderStatus = "Cooking"
	OrderStatusDelivering OrderStatus = "Delivering"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

// OrderStatuses lists statuses in kitchen order.
var OrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusCooking,
	OrderStatusDelivering,
	OrderStatusDelivered,
}

// ActiveOrderStatuses are the statuses shown on the admin board; Delivered orders are archived.
var ActiveOrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusCooking,
	OrderStatusDelivering,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

type OrderItem struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	Product   *Product  `json:"product,omitempty"`
}

type Order struct {
	ID        int64           `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Total     decimal.Decimal `json:"total"`
	UserID    string          `json:"user_id"`
	Status    OrderStatus     `json:"status"`
	Items     []OrderItem     `json:"order_items,omitempty"`
}

// NewOrder is the insert payload for an order row.
type NewOrder struct {
	Total  decimal.Decimal
	UserID string
}

// NewOrderItem is the insert payload for one order_items row.
type NewOrderItem struct {
	OrderID   int64
	ProductID int64
	Quantity  int
}

// ItemsFromBasket maps basket lines to order item rows for orderID.
func ItemsFromBasket(orderID int64, lines []BasketLine) []NewOrderItem {
	items := make([]NewOrderItem, len(lines))
	for i, l := range lines {
		items[i] = NewOrderItem{
			OrderID:   orderID,
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
		}
	}
	return items
}
