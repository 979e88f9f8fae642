package wallet

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/fastprodman/vendpay/internal/infra/pgtestutil"
	"github.com/fastprodman/vendpay/internal/repos/users"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, db *sql.DB, balance string) int64 {
	t.Helper()

	var id int64

	err := db.QueryRow(`
		INSERT INTO users (email, password_hash, name, balance)
		VALUES ('wallet@example.com', 'x', 'Wallet User', $1)
		RETURNING id
	`, balance).Scan(&id)
	require.NoError(t, err, "seed user")

	return id
}

func TestRecharge(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	svc := New(db)
	ctx := context.Background()
	userID := seedUser(t, db, "100.00")

	rec, newBalance, err := svc.Recharge(ctx, userID, decimal.RequireFromString("250.00"), "mtn", "+237612345678")
	require.NoError(t, err)

	assert.True(t, newBalance.Equal(decimal.RequireFromString("350.00")), "newBalance=%s", newBalance)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", rec.Reference.String())
	assert.NotNil(t, rec.ProcessedAt)

	// The audit row landed with the credit.
	var count int

	err = db.QueryRow(`SELECT COUNT(*) FROM recharges WHERE user_id = $1`, userID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Invalid amounts are rejected before any store write.
	_, _, err = svc.Recharge(ctx, userID, decimal.RequireFromString("-1.00"), "mtn", "+237612345678")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = svc.Recharge(ctx, 99999, decimal.RequireFromString("10.00"), "mtn", "+237612345678")
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}

// Concurrent recharges never lose an update.
func TestRecharge_ConcurrentNoLostUpdates(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	svc := New(db)
	ctx := context.Background()
	userID := seedUser(t, db, "0.00")

	const n = 8 // 8 x 25.00

	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, _, err := svc.Recharge(ctx, userID, decimal.RequireFromString("25.00"), "orange", "+237699999999")
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("200.00")), "balance=%s", balance)
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	svc := New(db)
	ctx := context.Background()
	userID := seedUser(t, db, "320.40")

	removed, err := svc.Empty(ctx, userID)
	require.NoError(t, err)
	assert.True(t, removed.Equal(decimal.RequireFromString("320.40")))

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	_, err = svc.Empty(ctx, userID)
	assert.ErrorIs(t, err, ErrBalanceEmpty)
}

func TestProfile(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	svc := New(db)
	ctx := context.Background()
	userID := seedUser(t, db, "42.00")

	u, err := svc.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "wallet@example.com", u.Email)
	assert.True(t, u.Balance.Equal(decimal.RequireFromString("42.00")))

	_, err = svc.Profile(ctx, 99999)
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}
