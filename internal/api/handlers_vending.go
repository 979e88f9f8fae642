package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fastprodman/vendpay/internal/repos/transactions"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createTransactionRequest struct {
	Amount string          `json:"amount"`
	Basket json.RawMessage `json:"basket"`
}

type payRequest struct {
	Method string `json:"method"`
}

type transactionPayload struct {
	ID            string          `json:"id"`
	Amount        string          `json:"amount"`
	Basket        json.RawMessage `json:"basket"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	ExpiresAt     time.Time       `json:"expiresAt"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
}

func toTransactionPayload(t *transactions.Transaction) transactionPayload {
	return transactionPayload{
		ID:            t.ID,
		Amount:        t.Amount.StringFixed(2),
		Basket:        t.Items,
		Status:        string(t.Status),
		PaymentMethod: t.PaymentMethod,
		CreatedAt:     t.CreatedAt,
		ExpiresAt:     t.ExpiresAt,
		PaidAt:        t.PaidAt,
	}
}

// parseAmount converts a decimal string with up to 2 fractional digits.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}

	return d, nil
}

// CreateTransactionHandler handles POST /api/transactions.
func (h *HandlerProvider) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req createTransactionRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	t, err := h.vending.Create(r.Context(), userID, amount, req.Basket)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"data": toTransactionPayload(t)})
}

// GetTransactionHandler handles GET /api/transactions/{id}.
func (h *HandlerProvider) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	t, err := h.vending.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"data": toTransactionPayload(t)})
}

// PayTransactionHandler handles POST /api/transactions/{id}/pay.
func (h *HandlerProvider) PayTransactionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req payRequest

	// The body is optional: pay without a method is valid.
	if r.ContentLength != 0 {
		err := decodeBody(w, r, &req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	t, newBalance, err := h.vending.Pay(r.Context(), chi.URLParam(r, "id"), userID, req.Method)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"data":       toTransactionPayload(t),
		"newBalance": newBalance.StringFixed(2),
	})
}

// CancelTransactionHandler handles POST /api/transactions/{id}/cancel.
func (h *HandlerProvider) CancelTransactionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	t, err := h.vending.Cancel(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"data": toTransactionPayload(t)})
}

// HistoryHandler handles GET /api/transactions?limit=.
func (h *HandlerProvider) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	limit := 0

	rawLimit := r.URL.Query().Get("limit")
	if rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}

		limit = parsed
	}

	list, err := h.vending.History(r.Context(), userID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payload := make([]transactionPayload, 0, len(list))
	for i := range list {
		payload = append(payload, toTransactionPayload(&list[i]))
	}

	writeSuccess(w, http.StatusOK, map[string]any{"data": payload})
}
