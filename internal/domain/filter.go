package domain

import (
	"github.com/shopspring/decimal"
)

type SortField string

const (
	SortCreated SortField = "created"
	SortPrice   SortField = "price"
	SortName    SortField = "name"
)

var sortColumns = map[SortField]string{
	SortCreated: "p.created_at",
	SortPrice:   "CAST(p.price AS REAL)",
	SortName:    "p.name",
}

const (
	DefaultPageSize = 12
	MaxPageSize     = 48
)

// ProductFilter has AND semantics across fields and OR semantics within each
// slice. Names are matched case-insensitively.
type ProductFilter struct {
	Categories []string
	Styles     []string
	Brands     []string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SaleOnly   bool
	XXLOnly    bool
	Query      string
	Sort       SortField
	Desc       bool
	Page       int
	PageSize   int
}

func (f ProductFilter) Validate() error {
	if f.Sort != "" {
		if _, ok := sortColumns[f.Sort]; !ok {
			return Invalid("sort", "must be one of created, price, name")
		}
	}
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		return Invalid("min_price", "must not be negative")
	}
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return Invalid("max_price", "must not be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MaxPrice.LessThan(*f.MinPrice) {
		return Invalid("max_price", "below min_price")
	}
	if f.Page < 0 {
		return Invalid("page", "must not be negative")
	}
	if f.PageSize < 0 || f.PageSize > MaxPageSize {
		return Invalid("page_size", "out of range")
	}
	return nil
}

// Normalized fills paging and sorting defaults.
func (f ProductFilter) Normalized() ProductFilter {
	if f.Sort == "" {
		f.Sort = SortCreated
		f.Desc = true
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize == 0 {
		f.PageSize = DefaultPageSize
	}
	return f
}

func (f ProductFilter) SortColumn() string { return sortColumns[f.Sort] }

func (f ProductFilter) Offset() int { return (f.Page - 1) * f.PageSize }
