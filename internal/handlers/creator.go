package handlers

import (
	"encoding/json"
	"net/http"

	"tanishuv/internal/storage"
)

// UpdateCreatorProfileRequest is the request body for creator settings
type UpdateCreatorProfileRequest struct {
	UserID              string          `json:"userId"`
	SubscriptionEnabled bool            `json:"subscriptionEnabled"`
	SubscriptionPrice   int64           `json:"subscriptionPrice"`
	DefaultPhotoPrice   int64           `json:"defaultPhotoPrice"`
	DefaultStoryPrice   int64           `json:"defaultStoryPrice"`
	DefaultMessagePrice int64           `json:"defaultMessagePrice"`
	TipsEnabled         bool            `json:"tipsEnabled"`
	MinTipAmount        int64           `json:"minTipAmount"`
	PayoutMethod        string          `json:"payoutMethod,omitempty"`
	PayoutDetails       json.RawMessage `json:"payoutDetails,omitempty"`
}

// UpdateCreatorProfile handles POST /payments/creator-profile. Creating
// a profile also flags the user's wallet as a creator wallet.
func (h *PaymentsHandler) UpdateCreatorProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateCreatorProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		respondWithError(w, "userId is required", http.StatusBadRequest)
		return
	}

	profile, err := storage.UpsertCreatorProfile(&storage.CreatorProfile{
		UserID:              req.UserID,
		SubscriptionEnabled: req.SubscriptionEnabled,
		SubscriptionPrice:   req.SubscriptionPrice,
		DefaultPhotoPrice:   req.DefaultPhotoPrice,
		DefaultStoryPrice:   req.DefaultStoryPrice,
		DefaultMessagePrice: req.DefaultMessagePrice,
		TipsEnabled:         req.TipsEnabled,
		MinTipAmount:        req.MinTipAmount,
		PayoutMethod:        req.PayoutMethod,
		PayoutDetails:       string(req.PayoutDetails),
	})
	if err != nil {
		respondWithError(w, "Failed to update creator profile", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"profile": profile,
	})
}

// CreatorProfile handles GET /payments/creator-profile?userId=
func (h *PaymentsHandler) CreatorProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondWithError(w, "userId is required", http.StatusBadRequest)
		return
	}

	profile, err := storage.GetCreatorProfile(userID)
	if err != nil {
		respondWithError(w, "Failed to load creator profile", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		respondWithError(w, "Creator profile not found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"profile": profile,
	})
}
