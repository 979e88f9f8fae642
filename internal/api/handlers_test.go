package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fastprodman/vendpay/internal/repos/recharges"
	"github.com/fastprodman/vendpay/internal/repos/transactions"
	"github.com/fastprodman/vendpay/internal/repos/users"
	"github.com/fastprodman/vendpay/internal/services/identity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Handler tests run against fakes; the services themselves are covered by
// their DB-backed tests.

const fakeUserID int64 = 7

type fakeIdentity struct{}

func (fakeIdentity) Register(context.Context, string, string, string, string) (*users.User, string, error) {
	return &users.User{ID: fakeUserID, Email: "t@example.com", Balance: decimal.Zero}, "tok", nil
}

func (fakeIdentity) Login(context.Context, string, string) (*users.User, string, error) {
	return &users.User{ID: fakeUserID, Email: "t@example.com", Balance: decimal.Zero}, "tok", nil
}

func (fakeIdentity) Verify(token string) (*identity.Claims, error) {
	if token != "good-token" {
		return nil, identity.ErrInvalidToken
	}

	return &identity.Claims{UserID: fakeUserID}, nil
}

type fakeVending struct {
	payErr    error
	createErr error
	getErr    error
}

func sampleTransaction() *transactions.Transaction {
	return &transactions.Transaction{
		ID:        "TXSAMPLE1234",
		UserID:    fakeUserID,
		Amount:    decimal.RequireFromString("500.00"),
		Items:     json.RawMessage(`[{"name":"Cola","price":"500.00"}]`),
		Status:    transactions.StatusPending,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
}

func (f *fakeVending) Create(_ context.Context, _ int64, _ decimal.Decimal, _ json.RawMessage) (*transactions.Transaction, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	return sampleTransaction(), nil
}

func (f *fakeVending) Get(context.Context, string, int64) (*transactions.Transaction, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}

	return sampleTransaction(), nil
}

func (f *fakeVending) Pay(context.Context, string, int64, string) (*transactions.Transaction, decimal.Decimal, error) {
	if f.payErr != nil {
		return nil, decimal.Zero, f.payErr
	}

	t := sampleTransaction()
	t.Status = transactions.StatusPaid

	return t, decimal.RequireFromString("500.00"), nil
}

func (f *fakeVending) Cancel(context.Context, string, int64) (*transactions.Transaction, error) {
	t := sampleTransaction()
	t.Status = transactions.StatusCancelled

	return t, nil
}

func (f *fakeVending) History(context.Context, int64, int) ([]transactions.Transaction, error) {
	return []transactions.Transaction{*sampleTransaction()}, nil
}

type fakeWallet struct{}

func (fakeWallet) Recharge(context.Context, int64, decimal.Decimal, string, string) (*recharges.Recharge, decimal.Decimal, error) {
	return &recharges.Recharge{}, decimal.RequireFromString("100.00"), nil
}

func (fakeWallet) Empty(context.Context, int64) (decimal.Decimal, error) {
	return decimal.RequireFromString("100.00"), nil
}

func (fakeWallet) Profile(context.Context, int64) (*users.User, error) {
	return &users.User{ID: fakeUserID, Balance: decimal.Zero}, nil
}

func (fakeWallet) Balance(context.Context, int64) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func newTestRouter(v VendingService) http.Handler {
	return NewRouter(NewHandler(v, fakeWallet{}, fakeIdentity{}, nil))
}

func doRequest(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeVending{})

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "missing_token", token: "", wantStatus: http.StatusUnauthorized},
		{name: "bad_token", token: "forged", wantStatus: http.StatusForbidden},
		{name: "valid_token", token: "good-token", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := doRequest(t, router, http.MethodGet, "/api/transactions/TXSAMPLE1234", tt.token, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestPayHandler_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		payErr     error
		wantStatus int
	}{
		{name: "success", payErr: nil, wantStatus: http.StatusOK},
		{name: "not_found", payErr: transactions.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "already_paid", payErr: &transactions.StateError{Status: transactions.StatusPaid}, wantStatus: http.StatusConflict},
		{name: "already_expired", payErr: &transactions.StateError{Status: transactions.StatusExpired}, wantStatus: http.StatusConflict},
		{name: "insufficient_funds", payErr: users.ErrInsufficientFunds, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(&fakeVending{payErr: tt.payErr})

			rec := doRequest(t, router, http.MethodPost, "/api/transactions/TXSAMPLE1234/pay", "good-token",
				`{"method":"wallet"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]any

			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, true, body["success"])
				assert.Equal(t, "500.00", body["newBalance"])
			} else {
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestCreateHandler(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeVending{})

	rec := doRequest(t, router, http.MethodPost, "/api/transactions", "good-token",
		`{"amount":"500.00","basket":[{"name":"Cola","price":"500.00"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "data payload missing: %v", body)
	assert.Equal(t, "TXSAMPLE1234", data["id"])
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "500.00", data["amount"])

	// Malformed inputs are rejected before touching the service.
	rec = doRequest(t, router, http.MethodPost, "/api/transactions", "good-token", `{"amount":"abc","basket":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/transactions", "good-token", ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateHandler_ValidationErrorMapping(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeVending{createErr: transactions.ErrDuplicateID})

	rec := doRequest(t, router, http.MethodPost, "/api/transactions", "good-token",
		`{"amount":"500.00","basket":[{"name":"Cola"}]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
