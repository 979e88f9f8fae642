package api

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/fastprodman/vendpay/internal/repos/recharges"
	"github.com/fastprodman/vendpay/internal/repos/transactions"
	"github.com/fastprodman/vendpay/internal/repos/users"
	"github.com/fastprodman/vendpay/internal/services/identity"
	"github.com/shopspring/decimal"
)

// The provider depends on narrow interfaces rather than the concrete
// services so handler tests can run against fakes.

type VendingService interface {
	Create(ctx context.Context, userID int64, amount decimal.Decimal, basket json.RawMessage) (*transactions.Transaction, error)
	Get(ctx context.Context, id string, userID int64) (*transactions.Transaction, error)
	Pay(ctx context.Context, id string, userID int64, method string) (*transactions.Transaction, decimal.Decimal, error)
	Cancel(ctx context.Context, id string, userID int64) (*transactions.Transaction, error)
	History(ctx context.Context, userID int64, limit int) ([]transactions.Transaction, error)
}

type WalletService interface {
	Recharge(ctx context.Context, userID int64, amount decimal.Decimal, operator, phone string) (*recharges.Recharge, decimal.Decimal, error)
	Empty(ctx context.Context, userID int64) (decimal.Decimal, error)
	Profile(ctx context.Context, userID int64) (*users.User, error)
	Balance(ctx context.Context, userID int64) (decimal.Decimal, error)
}

type IdentityService interface {
	Register(ctx context.Context, email, password, name, phone string) (*users.User, string, error)
	Login(ctx context.Context, email, password string) (*users.User, string, error)
	Verify(token string) (*identity.Claims, error)
}

// HandlerProvider exposes the HTTP handlers over the three services.
type HandlerProvider struct {
	vending  VendingService
	wallet   WalletService
	identity IdentityService
	db       *sql.DB
}

func NewHandler(vending VendingService, wallet WalletService, idn IdentityService, db *sql.DB) *HandlerProvider {
	return &HandlerProvider{
		vending:  vending,
		wallet:   wallet,
		identity: idn,
		db:       db,
	}
}
