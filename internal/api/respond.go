package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fastprodman/vendpay/internal/repos/distributor"
	"github.com/fastprodman/vendpay/internal/repos/transactions"
	"github.com/fastprodman/vendpay/internal/repos/users"
	"github.com/fastprodman/vendpay/internal/services/identity"
	"github.com/fastprodman/vendpay/internal/services/vending"
	"github.com/fastprodman/vendpay/internal/services/wallet"
)

// Responses keep the envelope the vending clients already speak:
// {"success": true, ...} / {"success": false, "error": "..."}.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, status int, payload map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}

	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// writeDomainError maps service errors onto HTTP statuses. Unknown errors
// are logged and answered with an opaque 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var stateErr *transactions.StateError

	switch {
	case errors.Is(err, transactions.ErrNotFound),
		errors.Is(err, users.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &stateErr):
		writeError(w, http.StatusConflict, stateErr.Error())
	case errors.Is(err, users.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient funds")
	case errors.Is(err, users.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, vending.ErrIDSpaceExhausted),
		errors.Is(err, transactions.ErrDuplicateID):
		writeError(w, http.StatusConflict, "transient id conflict, retry")
	case errors.Is(err, vending.ErrInvalidAmount),
		errors.Is(err, vending.ErrInvalidBasket),
		errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrBalanceEmpty):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, distributor.ErrLedgerMissing):
		slog.Error("distributor ledger missing", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
