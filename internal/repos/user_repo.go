package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"lacestore/internal/domain"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.one(ctx, `SELECT id,email,name,password_hash,role FROM users WHERE LOWER(email)=LOWER(?)`, email)
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	return r.one(ctx, `SELECT id,email,name,password_hash,role FROM users WHERE id=?`, id)
}

func (r *UserRepo) one(ctx context.Context, q string, arg any) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &u, q, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("user", arg)
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	return &u, nil
}

// List returns customers (admins excluded) for the admin users page.
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &out,
		`SELECT id,email,name,password_hash,role FROM users WHERE role != 'ADMIN' ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("user.List: %w", err)
	}
	return out, nil
}
