package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"lacestore/internal/domain"
	"lacestore/internal/events"
)

// OrderRepo persists orders and their items. Item deletions raise
// OrderItemDeleted inside the deleting transaction.
type OrderRepo struct {
	db     *sqlx.DB
	events events.Publisher
}

func NewOrderRepo(db *sqlx.DB, pub events.Publisher) *OrderRepo {
	if pub == nil {
		pub = events.Nop{}
	}
	return &OrderRepo{db: db, events: pub}
}

const orderSelect = `SELECT id, user_id, order_number, created_at, total, status FROM orders`

const itemSelect = `
	SELECT id, order_id, variant_id, product_id, product_name, color, size, quantity, price, subtotal
	FROM order_items`

// Create inserts the order header and sets o.ID.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
	  INSERT INTO orders (user_id, order_number, total, status, created_at)
	  VALUES (?, ?, ?, ?, ?)
	`, o.UserID, o.Number, o.Total.StringFixed(2), string(o.Status), dbTime(o.CreatedAt))
	if err != nil {
		return fmt.Errorf("order.Create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("order.Create: %w", err)
	}
	o.ID = id
	return nil
}

// InsertItem inserts a single line item and sets it.ID.
func (r *OrderRepo) InsertItem(ctx context.Context, it *domain.OrderItem) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
	  INSERT INTO order_items(order_id, variant_id, product_id, product_name, color, size, quantity, price, subtotal)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, it.OrderID, it.VariantID, it.ProductID, it.ProductName, it.Color, it.Size, it.Quantity,
		it.Price.StringFixed(2), it.Subtotal.StringFixed(2))
	if err != nil {
		return fmt.Errorf("order.InsertItem: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("order.InsertItem: %w", err)
	}
	it.ID = id
	return nil
}

// Get loads the order with its items.
func (r *OrderRepo) Get(ctx context.Context, id int64) (domain.Order, error) {
	x := ext(ctx, r.db)
	var o domain.Order
	err := sqlx.GetContext(ctx, x, &o, orderSelect+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.NotFound("order", id)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("order.Get: %w", err)
	}
	if err := sqlx.SelectContext(ctx, x, &o.Items, itemSelect+` WHERE order_id = ? ORDER BY id`, id); err != nil {
		return domain.Order{}, fmt.Errorf("order.Get items: %w", err)
	}
	return o, nil
}

func (r *OrderRepo) GetItem(ctx context.Context, itemID int64) (domain.OrderItem, error) {
	var it domain.OrderItem
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &it, itemSelect+` WHERE id = ?`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OrderItem{}, domain.NotFound("order item", itemID)
	}
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("order.GetItem: %w", err)
	}
	return it, nil
}

func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Order
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &out, orderSelect+`
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("order.ListLatest: %w", err)
	}
	return out, nil
}

// ListByUser returns the orders placed by userID, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &out, orderSelect+`
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("order.ListByUser: %w", err)
	}
	return out, nil
}

// UpdateStatus moves the order from one status to another. It reports false
// when the order exists but is not in the from status.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.Status) (bool, error) {
	res, err := ext(ctx, r.db).ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ? AND status = ?`, string(to), id, string(from))
	if err != nil {
		return false, fmt.Errorf("order.UpdateStatus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("order.UpdateStatus: %w", err)
	}
	if n == 1 {
		return true, nil
	}
	var exists int
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &exists, `SELECT COUNT(*) FROM orders WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("order.UpdateStatus: %w", err)
	}
	if exists == 0 {
		return false, domain.NotFound("order", id)
	}
	return false, nil
}

// AdjustTotal adds delta (usually negative) to the stored total.
func (r *OrderRepo) AdjustTotal(ctx context.Context, id int64, delta decimal.Decimal) error {
	_, err := withTx(ctx, r.db, func(ctx context.Context) (struct{}, error) {
		x := ext(ctx, r.db)
		var total decimal.Decimal
		err := sqlx.GetContext(ctx, x, &total, `SELECT total FROM orders WHERE id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return struct{}{}, domain.NotFound("order", id)
		}
		if err != nil {
			return struct{}{}, fmt.Errorf("order.AdjustTotal: %w", err)
		}
		if _, err := x.ExecContext(ctx, `UPDATE orders SET total = ? WHERE id = ?`,
			total.Add(delta).StringFixed(2), id); err != nil {
			return struct{}{}, fmt.Errorf("order.AdjustTotal: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

// DeleteItem removes one item and raises OrderItemDeleted in the same
// transaction; a failing subscriber rolls the deletion back.
func (r *OrderRepo) DeleteItem(ctx context.Context, itemID int64) (domain.OrderItem, error) {
	return withTx(ctx, r.db, func(ctx context.Context) (domain.OrderItem, error) {
		it, err := r.GetItem(ctx, itemID)
		if err != nil {
			return domain.OrderItem{}, err
		}
		if _, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM order_items WHERE id = ?`, itemID); err != nil {
			return domain.OrderItem{}, fmt.Errorf("order.DeleteItem: %w", err)
		}
		err = r.events.Publish(ctx, events.OrderItemDeleted{
			Meta:      events.NewMeta(time.Now()),
			ItemID:    it.ID,
			OrderID:   it.OrderID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal,
		})
		if err != nil {
			return domain.OrderItem{}, err
		}
		return it, nil
	})
}

// DeleteOrder deletes every item one by one, so each is compensated, then the
// order itself.
func (r *OrderRepo) DeleteOrder(ctx context.Context, id int64) error {
	_, err := withTx(ctx, r.db, func(ctx context.Context) (struct{}, error) {
		x := ext(ctx, r.db)
		var itemIDs []int64
		if err := sqlx.SelectContext(ctx, x, &itemIDs, `SELECT id FROM order_items WHERE order_id = ? ORDER BY id`, id); err != nil {
			return struct{}{}, fmt.Errorf("order.DeleteOrder: %w", err)
		}
		for _, itemID := range itemIDs {
			if _, err := r.DeleteItem(ctx, itemID); err != nil {
				return struct{}{}, err
			}
		}
		res, err := x.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
		if err != nil {
			return struct{}{}, fmt.Errorf("order.DeleteOrder: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return struct{}{}, domain.NotFound("order", id)
		}
		return struct{}{}, nil
	})
	return err
}
