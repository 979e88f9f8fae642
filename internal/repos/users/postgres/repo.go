package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/vendpay/internal/repos/users"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

var _ users.Users = (*usersRepo)(nil)

type usersRepo struct{ db *sql.DB }

func New(db *sql.DB) *usersRepo {
	return &usersRepo{db: db}
}

func (r *usersRepo) Create(ctx context.Context, email, passwordHash, name, phone string) (*users.User, error) {
	u := users.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Phone:        phone,
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, name, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, balance, created_at
	`, email, passwordHash, name, phone).Scan(&u.ID, &u.Balance, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, users.ErrEmailTaken
		}

		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &u, nil
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getOne(ctx, `
		SELECT id, email, password_hash, name, COALESCE(phone, ''), balance, created_at
		FROM users
		WHERE email = $1
	`, email)
}

func (r *usersRepo) GetByID(ctx context.Context, id int64) (*users.User, error) {
	return r.getOne(ctx, `
		SELECT id, email, password_hash, name, COALESCE(phone, ''), balance, created_at
		FROM users
		WHERE id = $1
	`, id)
}

func (r *usersRepo) getOne(ctx context.Context, query string, arg any) (*users.User, error) {
	var u users.User

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Balance, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrUserNotFound
		}

		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

func (r *usersRepo) GetBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := r.db.QueryRowContext(ctx, `
		SELECT balance
		FROM users
		WHERE id = $1
	`, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, users.ErrUserNotFound
		}

		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

func (r *usersRepo) LockAndGetBalance(tx *sql.Tx, id int64) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := tx.QueryRow(`
		SELECT balance
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, users.ErrUserNotFound
		}

		return decimal.Zero, fmt.Errorf("lock/get balance: %w", err)
	}

	return balance, nil
}

func (r *usersRepo) Credit(tx *sql.Tx, id int64, amount decimal.Decimal) error {
	res, err := tx.Exec(`
		UPDATE users
		SET balance = balance + $2, updated_at = now()
		WHERE id = $1
	`, id, amount)
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return users.ErrUserNotFound
	}

	return nil
}

// Debit is a guarded conditional update: the balance check and the write
// are one statement, so a concurrent debit can never overdraw the row.
func (r *usersRepo) Debit(tx *sql.Tx, id int64, amount decimal.Decimal) error {
	res, err := tx.Exec(`
		UPDATE users
		SET balance = balance - $2, updated_at = now()
		WHERE id = $1
		  AND balance >= $2
	`, id, amount)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return users.ErrInsufficientFunds
	}

	return nil
}

func (r *usersRepo) ZeroBalance(tx *sql.Tx, id int64) error {
	res, err := tx.Exec(`
		UPDATE users
		SET balance = 0.00, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("zero balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return users.ErrUserNotFound
	}

	return nil
}
