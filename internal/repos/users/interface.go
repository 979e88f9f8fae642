package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrEmailTaken        = errors.New("email already registered")
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Balance      decimal.Decimal
	CreatedAt    time.Time
}

// Users is the account store. Methods taking *sql.Tx participate in a
// caller-owned transaction; balance mutations are only valid there, after
// the row has been locked with LockAndGetBalance.
type Users interface {
	Create(ctx context.Context, email, passwordHash, name, phone string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetBalance(ctx context.Context, id int64) (decimal.Decimal, error)
	LockAndGetBalance(tx *sql.Tx, id int64) (decimal.Decimal, error)
	Credit(tx *sql.Tx, id int64, amount decimal.Decimal) error
	Debit(tx *sql.Tx, id int64, amount decimal.Decimal) error
	ZeroBalance(tx *sql.Tx, id int64) error
}
