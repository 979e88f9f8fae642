// Package vending implements the transaction lifecycle: create a pending
// reservation with a deadline, settle it atomically against the payer's
// balance, or let it expire/cancel. All mutual exclusion is Postgres row
// locking; the service holds no in-memory state, so it is safe across
// processes.
package vending

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/vendpay/internal/infra/pgutils"
	"github.com/fastprodman/vendpay/internal/repos/distributor"
	pgdistributor "github.com/fastprodman/vendpay/internal/repos/distributor/postgres"
	"github.com/fastprodman/vendpay/internal/repos/transactions"
	pgtransactions "github.com/fastprodman/vendpay/internal/repos/transactions/postgres"
	"github.com/fastprodman/vendpay/internal/repos/users"
	pgusers "github.com/fastprodman/vendpay/internal/repos/users/postgres"
	"github.com/fastprodman/vendpay/pkg/shortid"
	"github.com/shopspring/decimal"
)

const (
	idPrefix = "TX"

	// maxIDAttempts bounds the retry loop on short-id collisions. With a
	// 36^10 id space, needing even one retry is already unlikely.
	maxIDAttempts = 5

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

var (
	ErrInvalidAmount = errors.New("amount must be a positive value with at most 2 decimals")
	ErrInvalidBasket = errors.New("basket must be a non-empty JSON array")
	// ErrIDSpaceExhausted means every generated id collided. Practically
	// unreachable; surfaced as a transient conflict.
	ErrIDSpaceExhausted = errors.New("could not generate a unique transaction id")
)

type Service struct {
	db   *sql.DB
	ttl  time.Duration
	txns transactions.Transactions
	usrs users.Users
	dist distributor.Distributor
}

// New wires the service against db. ttl is the reservation window added to
// each created transaction.
func New(db *sql.DB, ttl time.Duration) *Service {
	return &Service{
		db:   db,
		ttl:  ttl,
		txns: pgtransactions.New(db),
		usrs: pgusers.New(db),
		dist: pgdistributor.New(db),
	}
}

// Create persists a new pending transaction owned by userID. The basket is
// opaque beyond being a non-empty JSON array; amounts are not reconciled
// against item prices.
func (s *Service) Create(ctx context.Context, userID int64, amount decimal.Decimal, basket json.RawMessage) (*transactions.Transaction, error) {
	if !amount.IsPositive() || amount.Exponent() < -2 {
		return nil, ErrInvalidAmount
	}

	err := validateBasket(basket)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		t := &transactions.Transaction{
			ID:        shortid.MustNew(idPrefix, shortid.DefaultWidth),
			UserID:    userID,
			Amount:    amount,
			Items:     basket,
			Status:    transactions.StatusPending,
			ExpiresAt: time.Now().Add(s.ttl),
		}

		err = s.txns.Insert(ctx, t)
		if err == nil {
			return t, nil
		}

		if errors.Is(err, transactions.ErrDuplicateID) {
			continue
		}

		return nil, fmt.Errorf("create transaction: %w", err)
	}

	return nil, ErrIDSpaceExhausted
}

// Get returns userID's transaction. A pending transaction past its
// deadline is transitioned to expired as a side effect (lazy sweep); the
// background sweeper remains responsible for rows nobody reads.
func (s *Service) Get(ctx context.Context, id string, userID int64) (*transactions.Transaction, error) {
	t, err := s.txns.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	if t.UserID != userID {
		return nil, fmt.Errorf("get transaction: %w", transactions.ErrNotFound)
	}

	if t.Status == transactions.StatusPending && time.Now().After(t.ExpiresAt) {
		_, err = s.txns.ExpireOne(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lazy expire: %w", err)
		}

		t.Status = transactions.StatusExpired
	}

	return t, nil
}

// Cancel transitions userID's pending transaction to cancelled. No balance
// was touched before settlement, so cancelling has no monetary effect.
// Cancelling a terminal transaction fails with StateError.
func (s *Service) Cancel(ctx context.Context, id string, userID int64) (*transactions.Transaction, error) {
	var result *transactions.Transaction

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

		err = s.txns.MarkCancelled(tx, id)
		if err != nil {
			return fmt.Errorf("mark cancelled: %w", err)
		}

		t.Status = transactions.StatusCancelled
		result = t

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancel transaction: %w", err)
	}

	return result, nil
}

// History lists userID's transactions, newest first.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]transactions.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	list, err := s.txns.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	return list, nil
}

func validateBasket(basket json.RawMessage) error {
	var items []json.RawMessage

	err := json.Unmarshal(basket, &items)
	if err != nil || len(items) == 0 {
		return ErrInvalidBasket
	}

	return nil
}
