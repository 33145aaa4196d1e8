package services

import (
	"context"

	"lacestore/internal/domain"
	"lacestore/internal/repos"
)

type variantStore interface {
	Find(ctx context.Context, productID int64, color, size string) (domain.Variant, error)
	Get(ctx context.Context, id int64) (domain.Variant, error)
	ByProduct(ctx context.Context, productID int64) ([]domain.Variant, error)
	Decrement(ctx context.Context, id int64, qty int) error
	Increment(ctx context.Context, id int64, qty int) error
	SetStock(ctx context.Context, id int64, qty int) error
	ListAll(ctx context.Context) ([]repos.InventoryRow, error)
}

// InventoryService is the stock ledger. Every call joins the transaction
// carried by ctx, if any.
type InventoryService struct {
	store variantStore
}

func NewInventoryService(v variantStore) *InventoryService {
	return &InventoryService{store: v}
}

// Reserve takes qty units out of stock, refusing to go below zero.
func (s *InventoryService) Reserve(ctx context.Context, variantID int64, qty int) error {
	if qty < 1 {
		return domain.Invalid("quantity", "must be at least 1")
	}
	return s.store.Decrement(ctx, variantID, qty)
}

// Release puts qty units back.
func (s *InventoryService) Release(ctx context.Context, variantID int64, qty int) error {
	if qty < 1 {
		return domain.Invalid("quantity", "must be at least 1")
	}
	return s.store.Increment(ctx, variantID, qty)
}

// Available is the stock of the (product, color, size) variant.
func (s *InventoryService) Available(ctx context.Context, productID int64, color, size string) (int, error) {
	v, err := s.store.Find(ctx, productID, color, size)
	if err != nil {
		return 0, err
	}
	return v.Stock, nil
}

func (s *InventoryService) Resolve(ctx context.Context, productID int64, color, size string) (domain.Variant, error) {
	return s.store.Find(ctx, productID, color, size)
}

// CheckAvailability converts stock to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID int64, color, size string) (domain.Availability, error) {
	qty, err := s.Available(ctx, productID, color, size)
	if err != nil {
		return domain.Availability{}, err
	}
	status := domain.OutOfStock
	switch {
	case qty >= 5:
		status = domain.InStock
	case qty > 0:
		status = domain.LowStock
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

func (s *InventoryService) SetStock(ctx context.Context, variantID int64, qty int) error {
	if qty < 0 {
		return domain.Invalid("stock", "must not be negative")
	}
	return s.store.SetStock(ctx, variantID, qty)
}

func (s *InventoryService) List(ctx context.Context) ([]repos.InventoryRow, error) {
	return s.store.ListAll(ctx)
}

func (s *InventoryService) Variants(ctx context.Context, productID int64) ([]domain.Variant, error) {
	return s.store.ByProduct(ctx, productID)
}
