package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/vendpay/internal/repos/transactions"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

const columns = `id, user_id, amount, items, status, COALESCE(payment_method, ''), created_at, expires_at, paid_at`

type transactionsRepo struct{ db *sql.DB }

func New(db *sql.DB) *transactionsRepo {
	return &transactionsRepo{db: db}
}

func (r *transactionsRepo) Insert(ctx context.Context, t *transactions.Transaction) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO transactions (id, user_id, amount, items, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, t.ID, t.UserID, t.Amount, []byte(t.Items), t.Status, t.ExpiresAt).Scan(&t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return transactions.ErrDuplicateID
		}

		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

func (r *transactionsRepo) Get(ctx context.Context, id string) (*transactions.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+columns+`
		FROM transactions
		WHERE id = $1
	`, id)

	return scanOne(row)
}

func (r *transactionsRepo) LockForUpdate(tx *sql.Tx, id string) (*transactions.Transaction, error) {
	row := tx.QueryRow(`
		SELECT `+columns+`
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, id)

	return scanOne(row)
}

func (r *transactionsRepo) MarkPaid(tx *sql.Tx, id, method string) (time.Time, error) {
	var paidAt time.Time

	err := tx.QueryRow(`
		UPDATE transactions
		SET status = $2, paid_at = now(), payment_method = NULLIF($3, '')
		WHERE id = $1
		  AND status = $4
		RETURNING paid_at
	`, id, transactions.StatusPaid, method, transactions.StatusPending).Scan(&paidAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, transactions.ErrNotPending
		}

		return time.Time{}, fmt.Errorf("mark paid: %w", err)
	}

	return paidAt, nil
}

func (r *transactionsRepo) MarkExpired(tx *sql.Tx, id string) error {
	return r.transition(tx, id, transactions.StatusExpired)
}

func (r *transactionsRepo) MarkCancelled(tx *sql.Tx, id string) error {
	return r.transition(tx, id, transactions.StatusCancelled)
}

func (r *transactionsRepo) transition(tx *sql.Tx, id string, to transactions.Status) error {
	res, err := tx.Exec(`
		UPDATE transactions
		SET status = $2
		WHERE id = $1
		  AND status = $3
	`, id, to, transactions.StatusPending)
	if err != nil {
		return fmt.Errorf("mark %s: %w", to, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return transactions.ErrNotPending
	}

	return nil
}

func (r *transactionsRepo) ExpireOne(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = $2
		WHERE id = $1
		  AND status = $3
		  AND expires_at < now()
	`, id, transactions.StatusExpired, transactions.StatusPending)
	if err != nil {
		return false, fmt.Errorf("expire one: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *transactionsRepo) ExpireOverdue(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1
		WHERE status = $2
		  AND expires_at < now()
	`, transactions.StatusExpired, transactions.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("expire overdue: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return affected, nil
}

func (r *transactionsRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]transactions.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+columns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []transactions.Transaction

	for rows.Next() {
		t, err := scanInto(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, *t)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*transactions.Transaction, error) {
	t, err := scanInto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transactions.ErrNotFound
		}

		return nil, err
	}

	return t, nil
}

func scanInto(row rowScanner) (*transactions.Transaction, error) {
	var (
		t      transactions.Transaction
		items  []byte
		paidAt sql.NullTime
	)

	err := row.Scan(
		&t.ID, &t.UserID, &t.Amount, &items, &t.Status,
		&t.PaymentMethod, &t.CreatedAt, &t.ExpiresAt, &paidAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	t.Items = items
	if paidAt.Valid {
		t.PaidAt = &paidAt.Time
	}

	return &t, nil
}
