// Package sweeper expires stale pending transactions in the background.
// The lazy check on read handles transactions somebody looks at; the
// sweeper converges the rest.
package sweeper

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/fastprodman/vendpay/internal/repos/transactions"
	pgtransactions "github.com/fastprodman/vendpay/internal/repos/transactions/postgres"
)

type Sweeper struct {
	txns     transactions.Transactions
	interval time.Duration
}

func New(db *sql.DB, interval time.Duration) *Sweeper {
	return &Sweeper{
		txns:     pgtransactions.New(db),
		interval: interval,
	}
}

// Run sweeps on a fixed interval until ctx is canceled. Each sweep is one
// set-based update, so lock contention stays bounded regardless of how
// many rows are overdue. Errors are logged and retried on the next tick,
// never fatal.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("expiry sweeper started", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			slog.Info("expiry sweeper stopped")

			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	count, err := s.txns.ExpireOverdue(ctx)
	if err != nil {
		slog.Error("expiry sweep failed", "error", err)

		return
	}

	if count > 0 {
		slog.Info("expired stale transactions", "count", count)
	}
}
