package realtime

import (
	"context"
	"time"

	d "github.com/fjod/foodcart/domain"
	"go.uber.org/zap"
)

const (
	defaultRelayTick  = time.Second
	defaultRelayBatch = 100
)

// ChangeSource hands out recorded order changes that are not yet published.
type ChangeSource interface {
	PublishChanges(ctx context.Context, limit int, publish func(context.Context, d.OrderChange) error) (int, error)
}

type ChangeWriter interface {
	Publish(ctx context.Context, change d.OrderChange) error
}

// Relay moves order changes recorded by the backend onto the change topic.
type Relay struct {
	source ChangeSource
	writer ChangeWriter
	tick   time.Duration
	batch  int
	logger *zap.Logger
}

func NewRelay(source ChangeSource, writer ChangeWriter, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		source: source,
		writer: writer,
		tick:   defaultRelayTick,
		batch:  defaultRelayBatch,
		logger: logger,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Flush(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// Flush publishes pending changes until the backlog is drained or a batch fails.
func (r *Relay) Flush(ctx context.Context) int {
	total := 0
	for ctx.Err() == nil {
		n, err := r.source.PublishChanges(ctx, r.batch, r.writer.Publish)
		total += n
		if err != nil {
			r.logger.Warn("order change relay failed", zap.Int("published", n), zap.Error(err))
			return total
		}
		if n < r.batch {
			break
		}
	}
	if total > 0 {
		r.logger.Debug("order changes published", zap.Int("count", total))
	}
	return total
}
