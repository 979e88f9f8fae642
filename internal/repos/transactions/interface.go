package transactions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition may leave the status.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusExpired || s == StatusCancelled
}

var (
	ErrNotFound = errors.New("transaction not found")
	// ErrDuplicateID signals a short-id collision on insert. Transient:
	// retry with a freshly generated id.
	ErrDuplicateID = errors.New("duplicate transaction id")
	// ErrNotPending matches any StateError via errors.Is.
	ErrNotPending = errors.New("transaction not pending")
)

// StateError reports a rejected operation on a transaction that already
// reached the given status.
type StateError struct {
	Status Status
}

func (e *StateError) Error() string {
	return "transaction already " + string(e.Status)
}

func (e *StateError) Is(target error) bool {
	return target == ErrNotPending
}

type Transaction struct {
	ID            string
	UserID        int64
	Amount        decimal.Decimal
	Items         json.RawMessage
	Status        Status
	PaymentMethod string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	PaidAt        *time.Time
}

// Transactions is the transaction-record store. Status transitions are
// conditional updates (`WHERE status = 'pending'`), never blind writes, so
// a terminal row can not be mutated even by a buggy caller. Methods taking
// *sql.Tx participate in the caller's settlement transaction.
type Transactions interface {
	Insert(ctx context.Context, t *Transaction) error
	Get(ctx context.Context, id string) (*Transaction, error)
	LockForUpdate(tx *sql.Tx, id string) (*Transaction, error)
	MarkPaid(tx *sql.Tx, id, method string) (time.Time, error)
	MarkExpired(tx *sql.Tx, id string) error
	MarkCancelled(tx *sql.Tx, id string) error

	// ExpireOne flips a single overdue pending row; used by the lazy
	// check on read. Returns false when the row was not pending-overdue.
	ExpireOne(ctx context.Context, id string) (bool, error)
	// ExpireOverdue is the sweeper's set-based bulk transition.
	ExpireOverdue(ctx context.Context) (int64, error)

	ListByUser(ctx context.Context, userID int64, limit int) ([]Transaction, error)
}
