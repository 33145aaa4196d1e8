package services

import (
	"context"

	"lacestore/internal/domain"
)

// FavoritesService keeps the per-session saved products. The list itself
// lives in the session; this only checks products exist and expands them.
type FavoritesService struct {
	Prods productStore
}

func NewFavoritesService(p productStore) *FavoritesService { return &FavoritesService{Prods: p} }

func (s *FavoritesService) Save(ctx context.Context, favs *domain.Favorites, productID int64) error {
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return err
	}
	*favs = favs.Add(productID)
	return nil
}

func (s *FavoritesService) Unsave(favs *domain.Favorites, productID int64) {
	*favs = favs.Remove(productID)
}

// List expands the saved ids; products deleted since are skipped.
func (s *FavoritesService) List(ctx context.Context, favs domain.Favorites) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(favs))
	for _, id := range favs {
		p, err := s.Prods.Get(ctx, id)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
