package services

import (
	"context"

	"lacestore/internal/domain"
)

type categoryStore interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type CatalogService struct {
	Cats  categoryStore
	Prods productStore
	Inv   *InventoryService
}

func NewCatalogService(cats categoryStore, prods productStore, inv *InventoryService) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Inv: inv}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

// GetProduct returns the product with every variant and its stock.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.ProductDetail, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return domain.ProductDetail{}, err
	}
	vs, err := s.Inv.Variants(ctx, id)
	if err != nil {
		return domain.ProductDetail{}, err
	}
	return domain.ProductDetail{Product: p, Variants: vs}, nil
}

// Search validates f, fills in paging and sort defaults and runs it.
func (s *CatalogService) Search(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.Prods.Search(ctx, f.Normalized())
}
