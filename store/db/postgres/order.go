package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/hadasco/deskrag/store"
)

// GetOrder returns the order with the given id.
func (d *DB) GetOrder(ctx context.Context, orderID string) (*store.Order, error) {
	query := `
		SELECT id, status, tracking_id, updated_ts
		FROM customer_order
		WHERE id = ` + placeholder(1)

	var order store.Order
	err := d.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID,
		&order.Status,
		&order.TrackingID,
		&order.UpdatedTs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get order")
	}
	return &order, nil
}
