package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"lacestore/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &out, `SELECT id, name FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("category.List: %w", err)
	}
	return out, nil
}
