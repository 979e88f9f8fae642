package recharges

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/vendpay/internal/repos/recharges"
)

var _ recharges.Recharges = (*rechargesRepo)(nil)

type rechargesRepo struct{ db *sql.DB }

func New(db *sql.DB) *rechargesRepo {
	return &rechargesRepo{db: db}
}

func (r *rechargesRepo) Insert(tx *sql.Tx, rec *recharges.Recharge) error {
	err := tx.QueryRow(`
		INSERT INTO recharges (reference, user_id, amount, operator, phone, status, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, requested_at, processed_at
	`, rec.Reference, rec.UserID, rec.Amount, rec.Operator, rec.Phone, rec.Status).
		Scan(&rec.ID, &rec.RequestedAt, &rec.ProcessedAt)
	if err != nil {
		return fmt.Errorf("insert recharge: %w", err)
	}

	return nil
}
