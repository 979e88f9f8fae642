package vending

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/vendpay/internal/infra/pgutils"
	"github.com/fastprodman/vendpay/internal/repos/transactions"
	"github.com/fastprodman/vendpay/internal/repos/users"
	"github.com/shopspring/decimal"
)

// Pay settles userID's pending transaction in a single DB transaction:
//
//  1. Lock the transaction row (FOR UPDATE); concurrent pays on the same
//     id serialize here and the loser sees a terminal status.
//  2. Reject terminal statuses. A pending-but-overdue transaction is
//     transitioned to expired (that transition commits) and the call
//     fails: a timed-out reservation never settles.
//  3. Lock the payer's balance row and check funds.
//  4. Mark paid, debit the payer, credit the distributor ledger. The
//     three writes commit together or roll back together.
//
// On success the updated transaction and the post-debit balance are
// returned.
func (s *Service) Pay(ctx context.Context, id string, userID int64, method string) (*transactions.Transaction, decimal.Decimal, error) {
	var (
		result     *transactions.Transaction
		newBalance decimal.Decimal
		expired    bool
	)

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		t, err := s.txns.LockForUpdate(tx, id)
		if err != nil {
			return fmt.Errorf("lock transaction: %w", err)
		}

		if t.UserID != userID {
			return transactions.ErrNotFound
		}

		if t.Status != transactions.StatusPending {
			return &transactions.StateError{Status: t.Status}
		}

		// Expiry takes precedence over settlement. Returning nil commits
		// the expired transition; the pay error is raised afterwards.
		if time.Now().After(t.ExpiresAt) {
			err = s.txns.MarkExpired(tx, id)
			if err != nil {
				return fmt.Errorf("mark expired: %w", err)
			}

			expired = true

			return nil
		}

		balance, err := s.usrs.LockAndGetBalance(tx, userID)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		if balance.LessThan(t.Amount) {
			return users.ErrInsufficientFunds
		}

		paidAt, err := s.txns.MarkPaid(tx, id, method)
		if err != nil {
			return fmt.Errorf("mark paid: %w", err)
		}

		err = s.usrs.Debit(tx, userID, t.Amount)
		if err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}

		err = s.dist.Credit(tx, t.Amount)
		if err != nil {
			return fmt.Errorf("credit distributor: %w", err)
		}

		t.Status = transactions.StatusPaid
		t.PaymentMethod = method
		t.PaidAt = &paidAt

		result = t
		newBalance = balance.Sub(t.Amount)

		return nil
	})
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("pay transaction: %w", err)
	}

	if expired {
		return nil, decimal.Zero, fmt.Errorf("pay transaction: %w", &transactions.StateError{Status: transactions.StatusExpired})
	}

	return result, newBalance, nil
}
