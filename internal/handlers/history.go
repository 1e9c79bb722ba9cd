package handlers

import (
	"net/http"
	"strconv"
)

// History handles GET /payments/history?userId=&limit=
// Only completed transactions appear; pending and failed rows are
// in-flight or dead state and stay hidden.
func (h *PaymentsHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondWithError(w, "userId is required", http.StatusBadRequest)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	transactions, err := h.settlement.TransactionHistory(userID, limit)
	if err != nil {
		respondWithError(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"transactions": transactions,
	})
}
