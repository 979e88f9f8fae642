package distributor

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrLedgerMissing means the aggregate row was never seeded; migrations
// create it, so hitting this is a deployment fault.
var ErrLedgerMissing = errors.New("distributor ledger row missing")

// Summary is the vending operator's running total: everything collected
// through settled transactions.
type Summary struct {
	ID        string
	Balance   decimal.Decimal
	TxCount   int64
	UpdatedAt time.Time
}

// Distributor is credited exactly once per settlement, inside the same DB
// transaction as the payer debit.
type Distributor interface {
	Credit(tx *sql.Tx, amount decimal.Decimal) error
	Get(ctx context.Context) (*Summary, error)
}
