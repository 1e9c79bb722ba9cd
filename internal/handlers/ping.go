package handlers

import (
	"net/http"
	"time"
)

// PingHandler handles the GET /ping liveness endpoint
func PingHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
