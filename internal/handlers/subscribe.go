package handlers

import (
	"encoding/json"
	"net/http"

	"tanishuv/internal/logger"
)

// SubscribeRequest is the request body for subscribing to a creator
type SubscribeRequest struct {
	SubscriberID string `json:"subscriberId"`
	CreatorID    string `json:"creatorId"`
	Price        int64  `json:"price"`
	DurationDays int    `json:"durationDays,omitempty"`
}

// Subscribe handles POST /payments/subscribe
func (h *PaymentsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SubscriberID == "" || req.CreatorID == "" || req.Price <= 0 {
		respondWithError(w, "subscriberId, creatorId and price are required", http.StatusBadRequest)
		return
	}

	receipt, err := h.settlement.SubscribeToCreator(r.Context(), req.SubscriberID, req.CreatorID, req.Price, req.DurationDays)
	if err != nil {
		logger.Debug(req.SubscriberID, "subscribe_failed", err.Error())
		respondSettlementError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"amount":    receipt.Amount,
		"fee":       receipt.Fee,
		"netAmount": receipt.NetAmount,
		"message":   "Subscribed successfully",
	})
}
