package handlers

import (
	"encoding/json"
	"net/http"

	"tanishuv/internal/logger"
)

// SendTipRequest is the request body for sending a tip
type SendTipRequest struct {
	SenderID    string `json:"senderId"`
	ReceiverID  string `json:"receiverId"`
	Amount      int64  `json:"amount"`
	Message     string `json:"message,omitempty"`
	IsAnonymous bool   `json:"isAnonymous,omitempty"`
}

// SendTip handles POST /payments/send-tip
func (h *PaymentsHandler) SendTip(w http.ResponseWriter, r *http.Request) {
	var req SendTipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SenderID == "" || req.ReceiverID == "" || req.Amount == 0 {
		respondWithError(w, "senderId, receiverId and amount are required", http.StatusBadRequest)
		return
	}

	receipt, err := h.settlement.SendTip(r.Context(), req.SenderID, req.ReceiverID, req.Amount, req.Message, req.IsAnonymous)
	if err != nil {
		logger.Debug(req.SenderID, "send_tip_failed", err.Error())
		respondSettlementError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"amount":    receipt.Amount,
		"fee":       receipt.Fee,
		"netAmount": receipt.NetAmount,
		"message":   "Tip sent successfully",
	})
}
