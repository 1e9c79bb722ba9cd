package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	tele "gopkg.in/telebot.v3"

	"tanishuv/internal/logger"
)

// Webhook handles POST /payments/webhook. Telegram retries deliveries
// that do not get a 200 back, so the response is always 200 regardless
// of what happened while processing the update.
func (h *PaymentsHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var update tele.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		logger.Error("", "webhook_decode", err.Error())
		respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
		return
	}

	h.bridge.HandleUpdate(update)

	respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// WebhookStatus handles GET /payments/webhook, a liveness probe for
// the webhook URL configured on the Telegram side.
func (h *PaymentsHandler) WebhookStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"message":   "Payment webhook is active",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
