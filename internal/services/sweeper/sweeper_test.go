package sweeper

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/fastprodman/vendpay/internal/infra/pgtestutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPending(t *testing.T, db *sql.DB, id string, expiresAt time.Time) {
	t.Helper()

	var userID int64

	err := db.QueryRow(`
		INSERT INTO users (email, password_hash, name)
		VALUES ($1, 'x', 'Sweep User')
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, "sweep@example.com").Scan(&userID)
	require.NoError(t, err, "seed user")

	_, err = db.Exec(`
		INSERT INTO transactions (id, user_id, amount, items, status, expires_at)
		VALUES ($1, $2, 100.00, '[{"name":"Cola"}]', 'pending', $3)
	`, id, userID, expiresAt)
	require.NoError(t, err, "seed transaction")
}

func statusOf(t *testing.T, db *sql.DB, id string) string {
	t.Helper()

	var status string

	err := db.QueryRow(`SELECT status FROM transactions WHERE id = $1`, id).Scan(&status)
	require.NoError(t, err)

	return status
}

func TestSweeper_ExpiresOverdueOnTick(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedPending(t, db, "TXSWEEPSTALE", time.Now().Add(-time.Minute))
	seedPending(t, db, "TXSWEEPLIVE1", time.Now().Add(10*time.Minute))

	s := New(db, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	// Wait for the stale row to converge, bounded.
	deadline := time.After(5 * time.Second)

	for statusOf(t, db, "TXSWEEPSTALE") != "expired" {
		select {
		case <-deadline:
			t.Fatal("sweeper did not expire the stale transaction in time")
		case <-time.After(50 * time.Millisecond):
		}
	}

	assert.Equal(t, "pending", statusOf(t, db, "TXSWEEPLIVE1"),
		"transaction inside its window must stay pending")

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on context cancellation")
	}
}
