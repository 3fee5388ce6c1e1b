package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	d "github.com/fjod/foodcart/domain"
	"github.com/lib/pq"
)

// relayLockKey serializes relays across instances so changes leave in id order.
const relayLockKey = 0x6f726463 // "ordc"

// PublishChanges hands up to limit unpublished order changes, oldest first, to publish and marks
// the delivered ones. The first publish failure ends the batch, leaving it and every later change
// for the next call. Returns how many were published; 0 without error if another relay holds the lock.
func (r *Repository) PublishChanges(ctx context.Context, limit int, publish func(context.Context, d.OrderChange) error) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var locked bool
	if err := tx.QueryRowContext(ctx, `SELECT pg_try_advisory_xact_lock($1)`, relayLockKey).Scan(&locked); err != nil {
		return 0, fmt.Errorf("acquire relay lock: %w", err)
	}
	if !locked {
		return 0, nil
	}

	ids, changes, err := pendingChanges(ctx, tx, limit)
	if err != nil {
		return 0, err
	}

	var publishErr error
	published := make([]int64, 0, len(changes))
	for i, change := range changes {
		if err := publish(ctx, change); err != nil {
			publishErr = fmt.Errorf("publish order change %d: %w", ids[i], err)
			break
		}
		published = append(published, ids[i])
	}

	if len(published) > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE order_changes SET published_at = NOW() WHERE id = ANY($1)`, pq.Array(published)); err != nil {
			return 0, fmt.Errorf("mark order changes published: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit order changes: %w", err)
	}
	return len(published), publishErr
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func pendingChanges(ctx context.Context, q queryer, limit int) ([]int64, []d.OrderChange, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, event, record, created_at
	                                  FROM order_changes WHERE published_at IS NULL
	                                  ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("query order changes: %w", err)
	}
	defer rows.Close()

	var (
		ids     []int64
		changes []d.OrderChange
	)
	for rows.Next() {
		var (
			id     int64
			event  string
			record []byte
			at     time.Time
		)
		if err := rows.Scan(&id, &event, &record, &at); err != nil {
			return nil, nil, fmt.Errorf("scan order change: %w", err)
		}
		change := d.OrderChange{Event: d.ChangeEvent(event), Table: d.OrdersTable, At: at}
		if err := json.Unmarshal(record, &change.Order); err != nil {
			return nil, nil, fmt.Errorf("decode order change %d: %w", id, err)
		}
		ids = append(ids, id)
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, changes, nil
}
