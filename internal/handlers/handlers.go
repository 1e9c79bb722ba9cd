package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"tanishuv/internal/service"

	"github.com/gorilla/mux"
)

// PaymentsHandler exposes the ledger and payment bridge over HTTP
type PaymentsHandler struct {
	settlement *service.SettlementService
	bridge     *service.PaymentBridge
}

// NewPaymentsHandler creates the HTTP handler set
func NewPaymentsHandler(settlement *service.SettlementService, bridge *service.PaymentBridge) *PaymentsHandler {
	return &PaymentsHandler{settlement: settlement, bridge: bridge}
}

// Register mounts all payment routes on the router
func (h *PaymentsHandler) Register(r *mux.Router) {
	r.HandleFunc("/ping", PingHandler).Methods(http.MethodGet)

	p := r.PathPrefix("/payments").Subrouter()
	p.HandleFunc("/balance", h.Balance).Methods(http.MethodGet)
	p.HandleFunc("/create-invoice", h.InvoiceDiagnostics).Methods(http.MethodGet)
	p.HandleFunc("/create-invoice", h.CreateInvoice).Methods(http.MethodPost)
	p.HandleFunc("/send-tip", h.SendTip).Methods(http.MethodPost)
	p.HandleFunc("/send-gift", h.SendGift).Methods(http.MethodPost)
	p.HandleFunc("/gifts", h.Gifts).Methods(http.MethodGet)
	p.HandleFunc("/subscribe", h.Subscribe).Methods(http.MethodPost)
	p.HandleFunc("/content", h.CreateContent).Methods(http.MethodPost)
	p.HandleFunc("/content", h.ListContent).Methods(http.MethodGet)
	p.HandleFunc("/purchase-content", h.PurchaseContent).Methods(http.MethodPost)
	p.HandleFunc("/withdraw", h.Withdraw).Methods(http.MethodPost)
	p.HandleFunc("/withdrawals", h.Withdrawals).Methods(http.MethodGet)
	p.HandleFunc("/history", h.History).Methods(http.MethodGet)
	p.HandleFunc("/creator-profile", h.CreatorProfile).Methods(http.MethodGet)
	p.HandleFunc("/creator-profile", h.UpdateCreatorProfile).Methods(http.MethodPost)
	p.HandleFunc("/webhook", h.Webhook).Methods(http.MethodPost)
	p.HandleFunc("/webhook", h.WebhookStatus).Methods(http.MethodGet)
}

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// respondSettlementError maps the settlement failure taxonomy to HTTP
// statuses: client-correctable failures are 4xx, store and external
// faults are 5xx.
func respondSettlementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientFunds):
		respondWithError(w, "Insufficient balance", http.StatusBadRequest)
	case errors.Is(err, service.ErrTipBelowMinimum),
		errors.Is(err, service.ErrWithdrawalBelowMinimum),
		errors.Is(err, service.ErrInvalidPayoutMethod):
		respondWithError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrAlreadySubscribed),
		errors.Is(err, service.ErrAlreadyPurchased):
		respondWithError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrGiftNotFound),
		errors.Is(err, service.ErrContentNotFound),
		errors.Is(err, service.ErrPackageNotFound):
		respondWithError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrBotNotConfigured):
		respondWithError(w, "Bot token is not configured", http.StatusInternalServerError)
	case errors.Is(err, service.ErrTelegramAPI):
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to create invoice",
			"details": err.Error(),
		})
	default:
		respondWithError(w, "Internal server error", http.StatusInternalServerError)
	}
}
