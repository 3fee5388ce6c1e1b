package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	d "github.com/fjod/foodcart/domain"
	"github.com/jpillora/backoff"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const defaultBuffer = 16

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

func NewKafkaReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MaxBytes:    10e6, // 10MB
		StartOffset: kafka.LastOffset,
	})
}

// Filter selects changes. Zero fields match everything, so Filter{} subscribes to the whole table.
type Filter struct {
	OrderID int64
	Event   d.ChangeEvent
}

func (f Filter) matches(c d.OrderChange) bool {
	if f.OrderID != 0 && c.Order.ID != f.OrderID {
		return false
	}
	if f.Event != "" && c.Event != f.Event {
		return false
	}
	return true
}

type Subscription struct {
	C <-chan d.OrderChange

	id  uint64
	hub *Hub
}

// Close stops delivery and closes C.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s.id)
}

type subscriber struct {
	filter Filter
	ch     chan d.OrderChange
}

type Hub struct {
	reader MessageReader
	retry  backoff.Backoff
	logger *zap.Logger

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscriber
	closed bool
}

func NewHub(reader MessageReader, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		reader: reader,
		retry:  backoff.Backoff{Min: 100 * time.Millisecond, Max: 10 * time.Second, Jitter: true},
		logger: logger,
		subs:   make(map[uint64]*subscriber),
	}
}

// Subscribe registers a subscriber. A subscriber that falls behind by more than buffer
// changes misses the newer ones.
func (h *Hub) Subscribe(f Filter, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	ch := make(chan d.OrderChange, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	if h.closed {
		close(ch)
	} else {
		h.subs[id] = &subscriber{filter: f, ch: ch}
	}
	return &Subscription{C: ch, id: id, hub: h}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(s.ch)
	}
}

// Run reads changes until ctx is done. Read failures are retried with backoff.
func (h *Hub) Run(ctx context.Context) error {
	defer h.closeAll()
	for {
		msg, err := h.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			wait := h.retry.Duration()
			h.logger.Warn("order change read failed", zap.Error(err), zap.Duration("retry_in", wait))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		h.retry.Reset()

		var change d.OrderChange
		if err := json.Unmarshal(msg.Value, &change); err != nil {
			h.logger.Error("order change decode failed", zap.ByteString("key", msg.Key), zap.Error(err))
			continue
		}
		h.Dispatch(change)
	}
}

// Dispatch delivers change to every matching subscriber without blocking.
func (h *Hub) Dispatch(change d.OrderChange) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.subs {
		if !s.filter.matches(change) {
			continue
		}
		select {
		case s.ch <- change:
		default:
			h.logger.Warn("subscriber too slow, change dropped",
				zap.Uint64("subscriber", id),
				zap.Int64("order_id", change.Order.ID))
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, s := range h.subs {
		delete(h.subs, id)
		close(s.ch)
	}
	if err := h.reader.Close(); err != nil {
		h.logger.Warn("order change reader close failed", zap.Error(err))
	}
}
