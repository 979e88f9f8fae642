package recharges

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const StatusProcessed = "processed"

// Recharge is the audit record of a wallet top-up. The mobile-money leg is
// simulated upstream, so rows arrive already processed.
type Recharge struct {
	ID          int64
	Reference   uuid.UUID
	UserID      int64
	Amount      decimal.Decimal
	Operator    string
	Phone       string
	Status      string
	RequestedAt time.Time
	ProcessedAt *time.Time
}

type Recharges interface {
	// Insert writes the record inside the caller's transaction, alongside
	// the balance credit.
	Insert(tx *sql.Tx, r *Recharge) error
}
