package repos_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lacestore/internal/repos"
)

func TestWithTxRollsBack(t *testing.T) {
	db := memdb(t)
	tx := repos.NewTxRunner(db)
	inv := repos.NewInventoryRepo(db)
	boom := errors.New("boom")

	err := tx.WithTx(t.Context(), func(ctx context.Context) error {
		if err := inv.Decrement(ctx, 1, 2); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := inv.Get(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Stock)
}

func TestWithTxNestedJoinsOuter(t *testing.T) {
	db := memdb(t)
	tx := repos.NewTxRunner(db)
	inv := repos.NewInventoryRepo(db)

	err := tx.WithTx(t.Context(), func(ctx context.Context) error {
		if err := tx.WithTx(ctx, func(ctx context.Context) error {
			return inv.Decrement(ctx, 1, 1)
		}); err != nil {
			return err
		}
		// inner "commit" is not final: the outer failure undoes it
		return errors.New("outer failed")
	})
	require.Error(t, err)

	v, _ := inv.Get(t.Context(), 1)
	assert.Equal(t, 5, v.Stock)

	require.NoError(t, tx.WithTx(t.Context(), func(ctx context.Context) error {
		return inv.Decrement(ctx, 1, 1)
	}))
	v, _ = inv.Get(t.Context(), 1)
	assert.Equal(t, 4, v.Stock)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, repos.IsTransient(nil))
	assert.False(t, repos.IsTransient(errors.New("database is locked")))
}
