package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lacestore/internal/domain"
)

func TestInventoryService_CheckAvailability(t *testing.T) {
	s := newShop(t)

	tests := []struct {
		name        string
		product     int64
		color, size string
		want        domain.Availability
		wantErr     error
	}{
		{name: "in stock", product: 42, color: "red", size: "M", want: domain.Availability{Status: domain.InStock, Qty: 5}},
		{name: "case-insensitive lookup", product: 42, color: "RED", size: "m", want: domain.Availability{Status: domain.InStock, Qty: 5}},
		{name: "low stock", product: 42, color: "black", size: "M", want: domain.Availability{Status: domain.LowStock, Qty: 2}},
		{name: "out of stock", product: 42, color: "red", size: "L", want: domain.Availability{Status: domain.OutOfStock, Qty: 0}},
		{name: "no such variant", product: 42, color: "green", size: "M", wantErr: domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.inv.CheckAvailability(t.Context(), tt.product, tt.color, tt.size)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInventoryService_ReserveRelease(t *testing.T) {
	s := newShop(t)
	ctx := t.Context()

	require.NoError(t, s.inv.Reserve(ctx, 1, 5))
	assert.Equal(t, 0, s.stock(t, 1))

	err := s.inv.Reserve(ctx, 1, 1)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 0, s.stock(t, 1), "a refused reserve leaves stock alone")

	require.NoError(t, s.inv.Release(ctx, 1, 2))
	assert.Equal(t, 2, s.stock(t, 1))

	var verr *domain.ValidationError
	assert.ErrorAs(t, s.inv.Reserve(ctx, 1, 0), &verr)
	assert.ErrorAs(t, s.inv.Release(ctx, 1, -1), &verr)
	assert.ErrorIs(t, s.inv.Reserve(ctx, 999, 1), domain.ErrNotFound)
	assert.ErrorIs(t, s.inv.Release(ctx, 999, 1), domain.ErrNotFound)
}

func TestInventoryService_SetStock(t *testing.T) {
	s := newShop(t)

	require.NoError(t, s.inv.SetStock(t.Context(), 3, 9))
	n, err := s.inv.Available(t.Context(), 42, "red", "L")
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	var verr *domain.ValidationError
	assert.ErrorAs(t, s.inv.SetStock(t.Context(), 3, -1), &verr)

	rows, err := s.inv.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, rows, 8)
}
