package handlers

import (
	"net/http"

	"tanishuv/internal/logger"
	"tanishuv/internal/storage"
)

// WalletResponse is the public wallet snapshot
type WalletResponse struct {
	Balance           int64 `json:"balance"`
	TotalEarned       int64 `json:"totalEarned"`
	TotalSpent        int64 `json:"totalSpent"`
	TotalWithdrawn    int64 `json:"totalWithdrawn"`
	PendingWithdrawal int64 `json:"pendingWithdrawal"`
	IsCreator         bool  `json:"isCreator"`
	CreatorVerified   bool  `json:"creatorVerified"`
}

// Balance handles GET /payments/balance?userId=
// The wallet is created lazily on first access.
func (h *PaymentsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondWithError(w, "userId is required", http.StatusBadRequest)
		return
	}

	wallet, err := storage.GetOrCreateWallet(userID)
	if err != nil {
		logger.Error(userID, "balance_error", err.Error())
		respondWithError(w, "Failed to load wallet", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"wallet": WalletResponse{
			Balance:           wallet.StarsBalance,
			TotalEarned:       wallet.TotalEarned,
			TotalSpent:        wallet.TotalSpent,
			TotalWithdrawn:    wallet.TotalWithdrawn,
			PendingWithdrawal: wallet.PendingWithdrawal,
			IsCreator:         wallet.IsCreator,
			CreatorVerified:   wallet.CreatorVerified,
		},
	})
}
