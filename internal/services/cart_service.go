package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"lacestore/internal/domain"
)

type productStore interface {
	Get(ctx context.Context, id int64) (domain.Product, error)
	Prices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error)
	Search(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
}

type CartService struct {
	Inv   *InventoryService
	Prods productStore
}

func NewCartService(inv *InventoryService, prods productStore) *CartService {
	return &CartService{Inv: inv, Prods: prods}
}

// Add appends line to cart after checking that the variant exists and has
// enough stock. It returns the variant's current stock; nothing is reserved.
func (s *CartService) Add(ctx context.Context, cart *domain.Cart, line domain.CartLine) (int, error) {
	if err := line.Validate(); err != nil {
		return 0, err
	}
	stock, err := s.Inv.Available(ctx, line.ProductID, line.Color, line.Size)
	if err != nil {
		return 0, err
	}
	if line.Quantity > stock {
		return stock, fmt.Errorf("%w: %d requested, %d left", domain.ErrInsufficientStock, line.Quantity, stock)
	}
	if err := cart.Add(line); err != nil {
		return stock, err
	}
	return stock, nil
}

type CartViewLine struct {
	Index     int
	ProductID int64
	Name      string
	Color     string
	Size      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
	Stock     int

	// Unavailable marks a line whose product was removed from the catalog.
	Unavailable bool
}

type CartView struct {
	Lines []CartViewLine
	Total decimal.Decimal
}

// View expands each line with the product's current name, price and stock.
// Lines whose variant disappeared show zero stock; lines whose product
// disappeared are flagged unavailable and left out of the total.
func (s *CartService) View(ctx context.Context, cart *domain.Cart) (CartView, error) {
	view := CartView{Lines: make([]CartViewLine, 0, len(cart.Lines)), Total: decimal.Zero}
	if cart.IsEmpty() {
		return view, nil
	}
	prices, err := s.Prods.Prices(ctx, cart.ProductIDs())
	if err != nil {
		return CartView{}, err
	}
	total := decimal.Zero
	names := map[int64]string{}
	for i, l := range cart.Lines {
		price, priced := prices[l.ProductID]
		name, ok := names[l.ProductID]
		if !ok && priced {
			p, err := s.Prods.Get(ctx, l.ProductID)
			switch {
			case isNotFound(err):
				priced = false
			case err != nil:
				return CartView{}, err
			default:
				name = p.Name
				names[l.ProductID] = name
			}
		}
		if !priced {
			view.Lines = append(view.Lines, CartViewLine{
				Index:       i,
				ProductID:   l.ProductID,
				Color:       l.Color,
				Size:        l.Size,
				Quantity:    l.Quantity,
				UnitPrice:   decimal.Zero,
				Subtotal:    decimal.Zero,
				Unavailable: true,
			})
			continue
		}
		stock, err := s.Inv.Available(ctx, l.ProductID, l.Color, l.Size)
		if err != nil && !isNotFound(err) {
			return CartView{}, err
		}
		subtotal := price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(subtotal)
		view.Lines = append(view.Lines, CartViewLine{
			Index:     i,
			ProductID: l.ProductID,
			Name:      name,
			Color:     l.Color,
			Size:      l.Size,
			Quantity:  l.Quantity,
			UnitPrice: price,
			Subtotal:  subtotal,
			Stock:     stock,
		})
	}
	view.Total = total
	return view, nil
}

func (s *CartService) UpdateQuantity(cart *domain.Cart, index, qty int) error {
	return cart.UpdateQuantity(index, qty)
}

func (s *CartService) Remove(cart *domain.Cart, index int) {
	cart.Remove(index)
}

func (s *CartService) Clear(cart *domain.Cart) {
	cart.Clear()
}

// Total prices the cart at current product prices.
func (s *CartService) Total(ctx context.Context, cart *domain.Cart) (decimal.Decimal, error) {
	if cart.IsEmpty() {
		return decimal.Zero, nil
	}
	prices, err := s.Prods.Prices(ctx, cart.ProductIDs())
	if err != nil {
		return decimal.Zero, err
	}
	return cart.Total(prices)
}
