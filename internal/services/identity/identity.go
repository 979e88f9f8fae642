// Package identity handles registration, login, and the JWT tokens that
// attribute transactions to an owner.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/vendpay/internal/repos/users"
	pgusers "github.com/fastprodman/vendpay/internal/repos/users/postgres"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Claims is the JWT payload carried by authenticated requests.
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	usrs     users.Users
	secret   []byte
	tokenTTL time.Duration
}

func New(db *sql.DB, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		usrs:     pgusers.New(db),
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Register creates an account with a zero balance and returns it together
// with a signed token. A duplicate email fails with users.ErrEmailTaken.
func (s *Service) Register(ctx context.Context, email, password, name, phone string) (*users.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u, err := s.usrs.Create(ctx, email, string(hash), name, phone)
	if err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.sign(u)
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}

// Login verifies the credentials and returns the account with a fresh
// token. Unknown email and wrong password are indistinguishable to the
// caller.
func (s *Service) Login(ctx context.Context, email, password string) (*users.User, string, error) {
	u, err := s.usrs.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}

		return nil, "", fmt.Errorf("get user: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.sign(u)
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}

// Verify parses and validates a bearer token, returning its claims.
func (s *Service) Verify(token string) (*Claims, error) {
	claims := new(Claims)

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *Service) sign(u *users.User) (string, error) {
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "vendpay",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}
