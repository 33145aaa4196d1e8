package repos_test

import (
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lacestore/internal/domain"
	"lacestore/internal/repos"
)

func ids(ps []domain.Product) []int64 {
	return lo.Map(ps, func(p domain.Product, _ int) int64 { return p.ID })
}

func TestProductSearch(t *testing.T) {
	db := memdb(t)
	repo := repos.NewProductRepo(db)
	lower := decimal.NewFromInt(20)
	upper := decimal.NewFromInt(40)

	tests := []struct {
		name   string
		filter domain.ProductFilter
		want   []int64
	}{
		{name: "default: newest first", filter: domain.ProductFilter{}, want: []int64{45, 44, 43, 42}},
		{name: "category", filter: domain.ProductFilter{Categories: []string{"bras"}, Sort: domain.SortName}, want: []int64{42, 43}},
		{name: "brands OR-ed", filter: domain.ProductFilter{Brands: []string{"Velvet Rose", "nope"}, Sort: domain.SortPrice}, want: []int64{44, 43}},
		{name: "price range", filter: domain.ProductFilter{MinPrice: &lower, MaxPrice: &upper, Sort: domain.SortPrice}, want: []int64{42, 43}},
		{name: "sale", filter: domain.ProductFilter{SaleOnly: true, Sort: domain.SortPrice, Desc: true}, want: []int64{45, 43}},
		{name: "xxl", filter: domain.ProductFilter{XXLOnly: true, Sort: domain.SortName}, want: []int64{45, 43}},
		{name: "query", filter: domain.ProductFilter{Query: "velvet"}, want: []int64{44}},
		{name: "style and sale", filter: domain.ProductFilter{Styles: []string{"Bralette"}, SaleOnly: true}, want: []int64{43}},
		{name: "paging", filter: domain.ProductFilter{Sort: domain.SortPrice, Page: 2, PageSize: 3}, want: []int64{45}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(t.Context(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestProductGetAndPrices(t *testing.T) {
	db := memdb(t)
	repo := repos.NewProductRepo(db)

	p, err := repo.Get(t.Context(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Lace Balconette Bra", p.Name)
	assert.Equal(t, "Bras", p.Category)
	assert.Equal(t, "20.00", p.Price.StringFixed(2))
	assert.False(t, p.Sale)

	_, err = repo.Get(t.Context(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	prices, err := repo.Prices(t.Context(), []int64{42, 43, 42, 7})
	require.NoError(t, err)
	assert.Len(t, prices, 2)
	assert.True(t, prices[43].Equal(decimal.RequireFromString("35.5")))
}
