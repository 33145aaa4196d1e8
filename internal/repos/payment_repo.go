package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"lacestore/internal/domain"
)

// PaymentRepo keeps one row per processed provider notification.
type PaymentRepo struct{ db *sqlx.DB }

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

type NotificationRow struct {
	Key        string    `db:"dedup_key"`
	OrderID    int64     `db:"order_id"`
	Outcome    string    `db:"outcome"`
	ReceivedAt time.Time `db:"received_at"`
}

// Record stores the key unless it was seen before; it reports whether this
// call inserted it.
func (r *PaymentRepo) Record(ctx context.Context, key string, orderID int64, outcome domain.PaymentOutcome, at time.Time) (bool, error) {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
		INSERT INTO payment_notifications(dedup_key, order_id, outcome, received_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(dedup_key) DO NOTHING
	`, key, orderID, string(outcome), dbTime(at))
	if err != nil {
		return false, fmt.Errorf("payment.Record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("payment.Record: %w", err)
	}
	return n == 1, nil
}

func (r *PaymentRepo) SetOutcome(ctx context.Context, key string, outcome domain.PaymentOutcome) error {
	if _, err := ext(ctx, r.db).ExecContext(ctx,
		`UPDATE payment_notifications SET outcome = ? WHERE dedup_key = ?`, string(outcome), key); err != nil {
		return fmt.Errorf("payment.SetOutcome: %w", err)
	}
	return nil
}

func (r *PaymentRepo) ByOrder(ctx context.Context, orderID int64) ([]NotificationRow, error) {
	var out []NotificationRow
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &out, `
		SELECT dedup_key, order_id, outcome, received_at
		FROM payment_notifications
		WHERE order_id = ?
		ORDER BY received_at
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("payment.ByOrder: %w", err)
	}
	return out, nil
}
