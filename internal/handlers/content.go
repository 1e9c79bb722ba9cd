package handlers

import (
	"encoding/json"
	"net/http"

	"tanishuv/internal/logger"
	"tanishuv/internal/storage"
)

// PurchaseContentRequest is the request body for unlocking content
type PurchaseContentRequest struct {
	BuyerID   string `json:"buyerId"`
	ContentID string `json:"contentId"`
}

// PurchaseContent handles POST /payments/purchase-content
func (h *PaymentsHandler) PurchaseContent(w http.ResponseWriter, r *http.Request) {
	var req PurchaseContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.BuyerID == "" || req.ContentID == "" {
		respondWithError(w, "buyerId and contentId are required", http.StatusBadRequest)
		return
	}

	receipt, err := h.settlement.PurchaseContent(r.Context(), req.BuyerID, req.ContentID)
	if err != nil {
		logger.Debug(req.BuyerID, "purchase_content_failed", err.Error())
		respondSettlementError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"amount":    receipt.Amount,
		"fee":       receipt.Fee,
		"netAmount": receipt.NetAmount,
		"message":   "Content unlocked",
	})
}

// CreateContentRequest is the request body for publishing paid content
type CreateContentRequest struct {
	CreatorID string `json:"creatorId"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Price     int64  `json:"price"`
}

// CreateContent handles POST /payments/content
func (h *PaymentsHandler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req CreateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CreatorID == "" || req.Type == "" || req.Price <= 0 {
		respondWithError(w, "creatorId, type and price are required", http.StatusBadRequest)
		return
	}

	content, err := storage.CreatePaidContent(req.CreatorID, req.Type, req.Title, req.Price)
	if err != nil {
		respondWithError(w, "Failed to create content", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"content": content,
	})
}

// ListContent handles GET /payments/content?creatorId=
func (h *PaymentsHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	creatorID := r.URL.Query().Get("creatorId")
	if creatorID == "" {
		respondWithError(w, "creatorId is required", http.StatusBadRequest)
		return
	}

	content, err := storage.ListCreatorContent(creatorID)
	if err != nil {
		respondWithError(w, "Failed to list content", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"content": content,
	})
}
