package handlers

import (
	"encoding/json"
	"net/http"

	"tanishuv/internal/logger"
	"tanishuv/internal/storage"
)

// WithdrawRequest is the request body for requesting a withdrawal
type WithdrawRequest struct {
	UserID        string          `json:"userId"`
	Amount        int64           `json:"amount"`
	Method        string          `json:"method"`
	PayoutDetails json.RawMessage `json:"payoutDetails,omitempty"`
}

// Withdraw handles POST /payments/withdraw
func (h *PaymentsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Amount <= 0 || req.Method == "" {
		respondWithError(w, "userId, amount and method are required", http.StatusBadRequest)
		return
	}

	request, err := h.settlement.RequestWithdrawal(r.Context(), req.UserID, req.Amount, req.Method, string(req.PayoutDetails))
	if err != nil {
		logger.Debug(req.UserID, "withdraw_failed", err.Error())
		respondSettlementError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"requestId": request.ID,
		"amount":    request.Amount,
		"fee":       request.Fee,
		"netAmount": request.NetAmount,
		"status":    request.Status,
	})
}

// Withdrawals handles GET /payments/withdrawals?userId=
func (h *PaymentsHandler) Withdrawals(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondWithError(w, "userId is required", http.StatusBadRequest)
		return
	}

	requests, err := storage.ListWithdrawalRequests(userID)
	if err != nil {
		respondWithError(w, "Failed to list withdrawals", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"withdrawals": requests,
	})
}
