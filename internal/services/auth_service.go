package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"lacestore/internal/domain"
)

var ErrBadCreds = errors.New("invalid email or password")

type userStore interface {
	ByEmail(ctx context.Context, email string) (*domain.User, error)
	ByID(ctx context.Context, id string) (*domain.User, error)
}

// AuthService checks credentials; binding the user to a session is the
// caller's job.
type AuthService struct {
	Users userStore
}

func NewAuthService(users userStore) *AuthService { return &AuthService{Users: users} }

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, strings.TrimSpace(email))
	if isNotFound(err) {
		return nil, ErrBadCreds
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	return u, nil
}

// CurrentUser resolves the user bound to a session; an unknown id reads as
// logged out.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, nil
	}
	u, err := s.Users.ByID(ctx, userID)
	if isNotFound(err) {
		return nil, nil
	}
	return u, err
}
