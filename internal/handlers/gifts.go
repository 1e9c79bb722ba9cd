package handlers

import (
	"encoding/json"
	"net/http"

	"tanishuv/internal/logger"
	"tanishuv/internal/storage"
)

// SendGiftRequest is the request body for sending a gift
type SendGiftRequest struct {
	SenderID    string `json:"senderId"`
	ReceiverID  string `json:"receiverId"`
	GiftID      string `json:"giftId"`
	Message     string `json:"message,omitempty"`
	IsAnonymous bool   `json:"isAnonymous,omitempty"`
}

// SendGift handles POST /payments/send-gift
func (h *PaymentsHandler) SendGift(w http.ResponseWriter, r *http.Request) {
	var req SendGiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SenderID == "" || req.ReceiverID == "" || req.GiftID == "" {
		respondWithError(w, "senderId, receiverId and giftId are required", http.StatusBadRequest)
		return
	}

	receipt, err := h.settlement.SendGift(r.Context(), req.SenderID, req.ReceiverID, req.GiftID, req.Message, req.IsAnonymous)
	if err != nil {
		logger.Debug(req.SenderID, "send_gift_failed", err.Error())
		respondSettlementError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"amount":    receipt.Amount,
		"fee":       receipt.Fee,
		"netAmount": receipt.NetAmount,
		"message":   "Gift sent successfully",
	})
}

// Gifts handles GET /payments/gifts: the active gift catalog
func (h *PaymentsHandler) Gifts(w http.ResponseWriter, r *http.Request) {
	gifts, err := storage.GetGifts()
	if err != nil {
		respondWithError(w, "Failed to load gifts", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"gifts":   gifts,
	})
}
