package domain

import "time"

type ChangeEvent string

const (
	ChangeInsert ChangeEvent = "INSERT"
	ChangeUpdate ChangeEvent = "UPDATE"
)

const OrdersTable = "orders"

// OrderChange is a realtime notification about an orders row.
type OrderChange struct {
	Event ChangeEvent `json:"event"`
	Table string      `json:"table"`
	Order Order       `json:"record"`
	At    time.Time   `json:"at"`
}
