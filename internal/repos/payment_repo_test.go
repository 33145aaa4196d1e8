package repos_test

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lacestore/internal/domain"
	"lacestore/internal/repos"
)

func TestPaymentRecordIsIdempotent(t *testing.T) {
	db := memdb(t)
	repo := repos.NewPaymentRepo(db)
	ctx := t.Context()
	key := gofakeit.UUID()

	inserted, err := repo.Record(ctx, key, 1, domain.PaymentConfirmed, time.Now())
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Record(ctx, key, 1, domain.PaymentConfirmed, time.Now())
	require.NoError(t, err)
	assert.False(t, inserted)

	require.NoError(t, repo.SetOutcome(ctx, key, domain.PaymentDuplicate))

	rows, err := repo.ByOrder(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, string(domain.PaymentDuplicate), rows[0].Outcome)
	assert.Equal(t, key, rows[0].Key)
}

func TestUserLookup(t *testing.T) {
	db := memdb(t)
	users := repos.NewUserRepo(db)

	u, err := users.ByEmail(t.Context(), "ALICE@lacestore.test")
	require.NoError(t, err)
	assert.Equal(t, "u-alice", u.ID)
	assert.False(t, u.IsAdmin())

	admin, err := users.ByID(t.Context(), "u-admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	_, err = users.ByID(t.Context(), "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := users.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
