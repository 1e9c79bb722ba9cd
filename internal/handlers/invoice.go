package handlers

import (
	"encoding/json"
	"net/http"

	"tanishuv/internal/logger"
	"tanishuv/internal/storage"
)

// CreateInvoiceRequest is the request body for invoice creation
type CreateInvoiceRequest struct {
	UserID         string `json:"userId"`
	PackageID      string `json:"packageId"`
	TelegramUserID int64  `json:"telegramUserId"`
}

// CreateInvoice handles POST /payments/create-invoice
func (h *PaymentsHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.PackageID == "" || req.TelegramUserID == 0 {
		respondWithError(w, "userId, packageId and telegramUserId are required", http.StatusBadRequest)
		return
	}

	result, err := h.bridge.CreateInvoice(req.UserID, req.PackageID, req.TelegramUserID)
	if err != nil {
		logger.Error(req.UserID, "create_invoice_error", err.Error())
		respondSettlementError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"invoiceUrl": result.InvoiceURL,
		"package": map[string]interface{}{
			"name":  result.Package.Name,
			"stars": result.Package.StarsAmount,
			"price": result.Package.PriceStars,
		},
	})
}

// InvoiceDiagnostics handles GET /payments/create-invoice: a catalog
// and configuration probe.
func (h *PaymentsHandler) InvoiceDiagnostics(w http.ResponseWriter, r *http.Request) {
	packages, err := storage.GetStarPackages()
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"botTokenSet":   h.bridge.Configured(),
		"packagesCount": len(packages),
		"packages":      packages,
	})
}
