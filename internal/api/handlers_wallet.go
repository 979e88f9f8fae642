package api

import (
	"net/http"
)

type rechargeRequest struct {
	Amount   string `json:"amount"`
	Operator string `json:"operator"`
	Phone    string `json:"phone"`
}

// RechargeHandler handles POST /api/recharge.
func (h *HandlerProvider) RechargeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req rechargeRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Operator == "" || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "operator and phone are required")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	rec, newBalance, err := h.wallet.Recharge(r.Context(), userID, amount, req.Operator, req.Phone)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"reference":  rec.Reference.String(),
		"newBalance": newBalance.StringFixed(2),
	})
}

// EmptyWalletHandler handles POST /api/wallet/empty.
func (h *HandlerProvider) EmptyWalletHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	removed, err := h.wallet.Empty(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"oldBalance": removed.StringFixed(2),
		"newBalance": "0.00",
	})
}

// ProfileHandler handles GET /api/profile.
func (h *HandlerProvider) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	u, err := h.wallet.Profile(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"user": userPayload(u)})
}

// HealthHandler handles GET /api/health with a live database ping.
func (h *HandlerProvider) HealthHandler(w http.ResponseWriter, r *http.Request) {
	err := h.db.PingContext(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"status": "ok"})
}
