package handlers

import (
	"github.com/shopspring/decimal"

	"lacestore/internal/domain"
	"lacestore/internal/services"
)

func money(d decimal.Decimal) string { return d.StringFixed(2) }

type productView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Sale        bool   `json:"sale"`
	Category    string `json:"category"`
	Brand       string `json:"brand"`
	Style       string `json:"style"`
}

func toProductView(p domain.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		Sale:        p.Sale,
		Category:    p.Category,
		Brand:       p.Brand,
		Style:       p.Style,
	}
}

type orderItemView struct {
	ID          int64  `json:"id"`
	VariantID   *int64 `json:"variant_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	Subtotal    string `json:"subtotal"`
}

type orderView struct {
	ID        int64           `json:"id"`
	Number    string          `json:"order_number"`
	UserID    string          `json:"user_id"`
	Status    domain.Status   `json:"status"`
	Total     string          `json:"total"`
	CreatedAt string          `json:"created_at"`
	Items     []orderItemView `json:"items"`
}

func toOrderView(o domain.Order) orderView {
	v := orderView{
		ID:        o.ID,
		Number:    o.Number,
		UserID:    o.UserID,
		Status:    o.Status,
		Total:     money(o.Total),
		CreatedAt: o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Items:     make([]orderItemView, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, orderItemView{
			ID:          it.ID,
			VariantID:   it.VariantID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Color:       it.Color,
			Size:        it.Size,
			Quantity:    it.Quantity,
			Price:       money(it.Price),
			Subtotal:    money(it.Subtotal),
		})
	}
	return v
}

type cartLineView struct {
	Index     int    `json:"index"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
	Stock     int    `json:"stock"`

	Unavailable bool `json:"unavailable,omitempty"`
}

type cartView struct {
	Lines []cartLineView `json:"lines"`
	Total string         `json:"total"`
}

func toCartView(cv services.CartView) cartView {
	v := cartView{Lines: make([]cartLineView, 0, len(cv.Lines)), Total: money(cv.Total)}
	for _, l := range cv.Lines {
		v.Lines = append(v.Lines, cartLineView{
			Index:     l.Index,
			ProductID: l.ProductID,
			Name:      l.Name,
			Color:     l.Color,
			Size:      l.Size,
			Quantity:  l.Quantity,
			UnitPrice: money(l.UnitPrice),
			Subtotal:  money(l.Subtotal),
			Stock:     l.Stock,

			Unavailable: l.Unavailable,
		})
	}
	return v
}
