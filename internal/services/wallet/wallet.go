// Package wallet covers balance operations outside the settlement flow:
// top-ups, emptying the account, and profile/balance reads. Mutations use
// the same row-locking discipline as settlement.
package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/vendpay/internal/infra/pgutils"
	"github.com/fastprodman/vendpay/internal/repos/recharges"
	pgrecharges "github.com/fastprodman/vendpay/internal/repos/recharges/postgres"
	"github.com/fastprodman/vendpay/internal/repos/users"
	pgusers "github.com/fastprodman/vendpay/internal/repos/users/postgres"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("amount must be a positive value with at most 2 decimals")
	ErrBalanceEmpty  = errors.New("balance is already zero")
)

type Service struct {
	db    *sql.DB
	usrs  users.Users
	rechs recharges.Recharges
}

func New(db *sql.DB) *Service {
	return &Service{
		db:    db,
		usrs:  pgusers.New(db),
		rechs: pgrecharges.New(db),
	}
}

// Recharge credits the user's balance and records the top-up, atomically.
// The mobile-money charge itself is simulated: rows are written already
// processed. Returns the recharge record and the post-credit balance.
func (s *Service) Recharge(ctx context.Context, userID int64, amount decimal.Decimal, operator, phone string) (*recharges.Recharge, decimal.Decimal, error) {
	if !amount.IsPositive() || amount.Exponent() < -2 {
		return nil, decimal.Zero, ErrInvalidAmount
	}

	rec := &recharges.Recharge{
		Reference: uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Operator:  operator,
		Phone:     phone,
		Status:    recharges.StatusProcessed,
	}

	var newBalance decimal.Decimal

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		balance, err := s.usrs.LockAndGetBalance(tx, userID)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		err = s.rechs.Insert(tx, rec)
		if err != nil {
			return fmt.Errorf("insert recharge: %w", err)
		}

		err = s.usrs.Credit(tx, userID, amount)
		if err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}

		newBalance = balance.Add(amount)

		return nil
	})
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("recharge: %w", err)
	}

	return rec, newBalance, nil
}

// Empty zeroes the user's balance and returns the amount removed.
func (s *Service) Empty(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var removed decimal.Decimal

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		balance, err := s.usrs.LockAndGetBalance(tx, userID)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		if !balance.IsPositive() {
			return ErrBalanceEmpty
		}

		err = s.usrs.ZeroBalance(tx, userID)
		if err != nil {
			return fmt.Errorf("zero balance: %w", err)
		}

		removed = balance

		return nil
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("empty wallet: %w", err)
	}

	return removed, nil
}

// Profile returns the account including its current balance (no locks).
func (s *Service) Profile(ctx context.Context, userID int64) (*users.User, error) {
	u, err := s.usrs.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	return u, nil
}

// Balance returns the user's balance (no locks; suitable for reads).
func (s *Service) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	balance, err := s.usrs.GetBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}
