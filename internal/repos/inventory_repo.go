package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"lacestore/internal/domain"
)

// InventoryRepo owns product_variants.stock.
type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Row used by admin inventory pages
type InventoryRow struct {
	VariantID int64  `db:"variant_id" json:"variant_id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Color     string `db:"color" json:"color"`
	Size      string `db:"size" json:"size"`
	Stock     int    `db:"stock" json:"stock"`
}

const variantSelect = `
	SELECT v.id, v.product_id, c.name AS color, s.name AS size, v.stock
	FROM product_variants v
	JOIN colors c ON c.id = v.color_id
	JOIN sizes  s ON s.id = v.size_id`

// ListAll returns every variant with its product name (for /admin/inventory).
func (r *InventoryRepo) ListAll(ctx context.Context) ([]InventoryRow, error) {
	var rows []InventoryRow
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, `
		SELECT v.id AS variant_id, v.product_id, p.name, c.name AS color, s.name AS size, v.stock
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		JOIN colors c ON c.id = v.color_id
		JOIN sizes  s ON s.id = v.size_id
		ORDER BY p.name, c.name, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("inventory.ListAll: %w", err)
	}
	return rows, nil
}

func (r *InventoryRepo) ByProduct(ctx context.Context, productID int64) ([]domain.Variant, error) {
	var out []domain.Variant
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &out,
		variantSelect+` WHERE v.product_id = ? ORDER BY c.name, s.id`, productID)
	if err != nil {
		return nil, fmt.Errorf("inventory.ByProduct: %w", err)
	}
	return out, nil
}

// Find resolves the (product, color, size) triple to its variant.
func (r *InventoryRepo) Find(ctx context.Context, productID int64, color, size string) (domain.Variant, error) {
	var v domain.Variant
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &v, variantSelect+`
		WHERE v.product_id = ? AND LOWER(c.name) = LOWER(?) AND LOWER(s.name) = LOWER(?)`,
		productID, color, size)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Variant{}, domain.NotFound("variant", fmt.Sprintf("%d/%s/%s", productID, color, size))
	}
	if err != nil {
		return domain.Variant{}, fmt.Errorf("inventory.Find: %w", err)
	}
	return v, nil
}

func (r *InventoryRepo) Get(ctx context.Context, id int64) (domain.Variant, error) {
	var v domain.Variant
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &v, variantSelect+` WHERE v.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Variant{}, domain.NotFound("variant", id)
	}
	if err != nil {
		return domain.Variant{}, fmt.Errorf("inventory.Get: %w", err)
	}
	return v, nil
}

// Decrement atomically subtracts qty if enough stock exists.
func (r *InventoryRepo) Decrement(ctx context.Context, id int64, qty int) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
		UPDATE product_variants
		SET stock = stock - ?
		WHERE id = ? AND stock >= ?
	`, qty, id, qty)
	if err != nil {
		return fmt.Errorf("inventory.Decrement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inventory.Decrement: %w", err)
	}
	if n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("variant %d: %w", id, domain.ErrInsufficientStock)
	}
	return nil
}

// Increment adds qty back; there is no upper bound.
func (r *InventoryRepo) Increment(ctx context.Context, id int64, qty int) error {
	res, err := ext(ctx, r.db).ExecContext(ctx,
		`UPDATE product_variants SET stock = stock + ? WHERE id = ?`, qty, id)
	if err != nil {
		return fmt.Errorf("inventory.Increment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("variant", id)
	}
	return nil
}

// SetStock overwrites the stock of one variant.
func (r *InventoryRepo) SetStock(ctx context.Context, id int64, qty int) error {
	res, err := ext(ctx, r.db).ExecContext(ctx,
		`UPDATE product_variants SET stock = ? WHERE id = ?`, qty, id)
	if err != nil {
		return fmt.Errorf("inventory.SetStock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("variant", id)
	}
	return nil
}
