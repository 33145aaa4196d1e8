package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Sale        bool            `db:"sale" json:"sale"`
	Category    string          `db:"category" json:"category"`
	Brand       string          `db:"brand" json:"brand"`
	Style       string          `db:"style" json:"style"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Variant is one purchasable (product, color, size) combination with its stock.
type Variant struct {
	ID        int64  `db:"id" json:"id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Color     string `db:"color" json:"color"`
	Size      string `db:"size" json:"size"`
	Stock     int    `db:"stock" json:"stock"`
}

type ProductDetail struct {
	Product
	Variants []Variant `json:"variants"`
}

const (
	InStock    = "IN_STOCK"
	LowStock   = "LOW_STOCK"
	OutOfStock = "OUT_OF_STOCK"
)

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}
