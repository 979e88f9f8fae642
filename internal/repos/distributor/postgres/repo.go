package distributor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/vendpay/internal/repos/distributor"
	"github.com/shopspring/decimal"
)

var _ distributor.Distributor = (*distributorRepo)(nil)

const ledgerID = "main"

type distributorRepo struct{ db *sql.DB }

func New(db *sql.DB) *distributorRepo {
	return &distributorRepo{db: db}
}

func (r *distributorRepo) Credit(tx *sql.Tx, amount decimal.Decimal) error {
	res, err := tx.Exec(`
		UPDATE distributor
		SET balance = balance + $2, tx_count = tx_count + 1, updated_at = now()
		WHERE id = $1
	`, ledgerID, amount)
	if err != nil {
		return fmt.Errorf("credit distributor: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return distributor.ErrLedgerMissing
	}

	return nil
}

func (r *distributorRepo) Get(ctx context.Context) (*distributor.Summary, error) {
	var s distributor.Summary

	err := r.db.QueryRowContext(ctx, `
		SELECT id, balance, tx_count, updated_at
		FROM distributor
		WHERE id = $1
	`, ledgerID).Scan(&s.ID, &s.Balance, &s.TxCount, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, distributor.ErrLedgerMissing
		}

		return nil, fmt.Errorf("get distributor: %w", err)
	}

	return &s, nil
}
