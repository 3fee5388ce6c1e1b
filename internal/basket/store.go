// Package basket keeps the client-side shopping basket and its running totals.
package basket

import (
	"math"
	"sync"
	"time"

	d "github.com/fjod/foodcart/domain"
	"github.com/shopspring/decimal"
)

// Store is one user's basket. Every mutation is a single read-modify-write under mu,
// so concurrent taps on +/- cannot corrupt itemCount or total.
type Store struct {
	mu        sync.Mutex
	lines     []d.BasketLine
	itemCount int
	total     decimal.Decimal
	updatedAt time.Time
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{total: decimal.Zero, now: time.Now}
}

// NewStoreFrom rebuilds a store from a persisted snapshot. Aggregates are recomputed
// from the lines; lines with a non-positive quantity are dropped.
func NewStoreFrom(snapshot d.BasketSnapshot) *Store {
	s := NewStore()
	for _, l := range snapshot.Lines {
		if l.Quantity <= 0 {
			continue
		}
		if i := s.indexOf(l.Product.ID); i >= 0 {
			s.lines[i].Quantity += l.Quantity
		} else {
			s.lines = append(s.lines, l)
		}
		s.itemCount += l.Quantity
		s.total = s.total.Add(l.Subtotal())
	}
	s.updatedAt = snapshot.UpdatedAt
	return s
}

// AddProduct adds one unit of p.
func (s *Store) AddProduct(p d.Product) d.BasketSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(p, 1)
	return s.snapshotLocked()
}

// UpdateQuantity applies delta to p's line. The applied change is clamped so the quantity
// never drops below zero and the item count never overflows; a line that reaches zero is removed.
func (s *Store) UpdateQuantity(p d.Product, delta int) d.BasketSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(p, delta)
	return s.snapshotLocked()
}

// RemoveProduct removes one unit of p. Removing a product that is not in the basket is a no-op.
func (s *Store) RemoveProduct(p d.Product) d.BasketSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(p, -1)
	return s.snapshotLocked()
}

func (s *Store) Clear() d.BasketSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.itemCount = 0
	s.total = decimal.Zero
	s.updatedAt = s.now()
	return s.snapshotLocked()
}

func (s *Store) Snapshot() d.BasketSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) apply(p d.Product, delta int) {
	// itemCount bounds every line, so capping growth at its headroom keeps all sums in range
	if headroom := math.MaxInt - s.itemCount; delta > headroom {
		delta = headroom
	}
	if delta == 0 {
		return
	}

	i := s.indexOf(p.ID)
	if i < 0 {
		if delta < 0 {
			return
		}
		s.lines = append(s.lines, d.BasketLine{Product: p, Quantity: delta})
		s.adjust(s.lines[len(s.lines)-1].Product.Price, delta)
		return
	}

	line := &s.lines[i]
	applied := delta
	if delta < -line.Quantity {
		applied = -line.Quantity
	}
	line.Quantity += applied
	// the stored line price is what was added, so totals stay consistent even if p carries a newer price
	s.adjust(line.Product.Price, applied)

	if line.Quantity == 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
}

func (s *Store) adjust(price decimal.Decimal, delta int) {
	s.itemCount += delta
	s.total = s.total.Add(price.Mul(decimal.NewFromInt(int64(delta))))
	s.updatedAt = s.now()
}

func (s *Store) indexOf(productID int64) int {
	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() d.BasketSnapshot {
	lines := make([]d.BasketLine, len(s.lines))
	copy(lines, s.lines)
	return d.BasketSnapshot{
		Lines:     lines,
		ItemCount: s.itemCount,
		Total:     s.total,
		UpdatedAt: s.updatedAt,
	}
}
