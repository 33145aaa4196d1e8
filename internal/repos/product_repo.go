package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"lacestore/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productSelect = `
  SELECT
    p.id, p.name, p.description, p.price, p.sale,
    c.name AS category, b.name AS brand, st.name AS style, p.created_at
  FROM products p
  JOIN categories c ON c.id = p.category_id
  JOIN brands b     ON b.id = p.brand_id
  JOIN styles st    ON st.id = p.style_id`

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &p, productSelect+` WHERE p.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.NotFound("product", id)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("product.Get: %w", err)
	}
	return p, nil
}

// Prices returns the current price of each product that exists.
func (r *ProductRepo) Prices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return map[int64]decimal.Decimal{}, nil
	}
	q, args, err := sqlx.In(`SELECT id, price FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("product.Prices: %w", err)
	}
	var rows []priceRow
	x := ext(ctx, r.db)
	if err := sqlx.SelectContext(ctx, x, &rows, x.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("product.Prices: %w", err)
	}
	return lo.SliceToMap(rows, func(row priceRow) (int64, decimal.Decimal) {
		return row.ID, row.Price
	}), nil
}

type priceRow struct {
	ID    int64           `db:"id"`
	Price decimal.Decimal `db:"price"`
}

// Search applies the filter. Name lists are OR-ed within a field and AND-ed
// across fields.
func (r *ProductRepo) Search(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	f = f.Normalized()

	where := []string{"1 = 1"}
	args := []any{}
	inNames := func(col string, names []string) {
		if len(names) == 0 {
			return
		}
		where = append(where, "LOWER("+col+") IN (?)")
		args = append(args, lo.Map(names, func(s string, _ int) string { return strings.ToLower(s) }))
	}
	inNames("c.name", f.Categories)
	inNames("st.name", f.Styles)
	inNames("b.name", f.Brands)
	if f.MinPrice != nil {
		where = append(where, "CAST(p.price AS REAL) >= ?")
		args = append(args, f.MinPrice.InexactFloat64())
	}
	if f.MaxPrice != nil {
		where = append(where, "CAST(p.price AS REAL) <= ?")
		args = append(args, f.MaxPrice.InexactFloat64())
	}
	if f.SaleOnly {
		where = append(where, "p.sale = 1")
	}
	if f.XXLOnly {
		where = append(where, `EXISTS (
			SELECT 1 FROM product_variants v JOIN sizes sz ON sz.id = v.size_id
			WHERE v.product_id = p.id AND UPPER(sz.name) = 'XXL')`)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "(LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ?)")
		like := "%" + strings.ToLower(q) + "%"
		args = append(args, like, like)
	}

	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	query := productSelect + `
  WHERE ` + strings.Join(where, " AND ") + `
  ORDER BY ` + f.SortColumn() + ` ` + dir + `, p.id
  LIMIT ? OFFSET ?`
	args = append(args, f.PageSize, f.Offset())

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("product.Search: %w", err)
	}
	x := ext(ctx, r.db)
	var out []domain.Product
	if err := sqlx.SelectContext(ctx, x, &out, x.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("product.Search: %w", err)
	}
	return out, nil
}
