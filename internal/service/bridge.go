package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tanishuv/internal/logger"
	"tanishuv/internal/storage"

	"gopkg.in/telebot.v3"
)

var (
	// ErrBotNotConfigured is returned when no bot token is set
	ErrBotNotConfigured = errors.New("telegram bot not configured")

	// ErrTelegramAPI wraps a non-ok response from the Bot API
	ErrTelegramAPI = errors.New("telegram api error")
)

// maxPayloadBytes is Telegram's hard limit on invoice payloads
const maxPayloadBytes = 128

// PaymentBridge creates Telegram invoice links and settles the
// pre_checkout_query / successful_payment webhook protocol against the
// ledger. Wallet credits happen exactly once per Telegram charge ID.
type PaymentBridge struct {
	api TelegramAPI
}

// NewPaymentBridge creates a bridge; api may be nil when no bot token
// is configured, in which case invoice creation fails fast.
func NewPaymentBridge(api TelegramAPI) *PaymentBridge {
	return &PaymentBridge{api: api}
}

// Configured reports whether the bridge can reach the Bot API
func (b *PaymentBridge) Configured() bool {
	return b.api != nil
}

// InvoiceResult is the outcome of a successful invoice creation
type InvoiceResult struct {
	InvoiceURL string
	Package    *storage.StarPackage
}

// shortID returns the leading segment of a UUID, the truncated form
// carried in the invoice payload.
func shortID(id string) string {
	if i := strings.Index(id, "-"); i >= 0 {
		return id[:i]
	}
	return id
}

// CreateInvoice builds the correlation payload, asks Telegram for an
// invoice link and records a pending purchase transaction for the
// webhook to complete later. The bookkeeping write is best-effort: the
// invoice is still returned if it fails, and the webhook falls back to
// prefix-matching the truncated IDs.
func (b *PaymentBridge) CreateInvoice(userID, packageID string, telegramUserID int64) (*InvoiceResult, error) {
	if b.api == nil {
		return nil, ErrBotNotConfigured
	}

	pkg, err := storage.GetStarPackage(packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, ErrPackageNotFound
	}

	payload := fmt.Sprintf("%s|%s|%d", shortID(userID), shortID(packageID), time.Now().UnixMilli())
	if len(payload) > maxPayloadBytes {
		return nil, fmt.Errorf("invoice payload exceeds %d bytes: %q", maxPayloadBytes, payload)
	}

	description := fmt.Sprintf("%s package - %d Stars", pkg.Name, pkg.StarsAmount)
	if pkg.BonusPercent > 0 {
		description += fmt.Sprintf(" (+%d%% bonus)", pkg.BonusPercent)
	}

	url, err := b.api.CreateInvoiceLink(InvoiceParams{
		Title:       fmt.Sprintf("%d Stars", pkg.StarsAmount),
		Description: description,
		Payload:     payload,
		Currency:    "XTR",
		Prices: []LabeledPrice{
			{Label: fmt.Sprintf("%d Stars", pkg.StarsAmount), Amount: pkg.PriceStars},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTelegramAPI, err)
	}

	metadata, _ := json.Marshal(storage.InvoiceMetadata{
		UserID:         userID,
		PackageID:      packageID,
		StarsAmount:    pkg.StarsAmount,
		TelegramUserID: telegramUserID,
		Timestamp:      time.Now().UnixMilli(),
		Payload:        payload,
	})
	if err := storage.InsertTransaction(&storage.Transaction{
		UserID:      userID,
		Type:        storage.TypePurchase,
		Amount:      pkg.StarsAmount,
		NetAmount:   pkg.StarsAmount,
		Status:      storage.StatusPending,
		Payload:     payload,
		Description: fmt.Sprintf("Stars purchase: %s", pkg.Name),
		Metadata:    string(metadata),
	}); err != nil {
		logger.Error(userID, "invoice_bookkeeping_failed", err.Error())
	}

	logger.Debug(userID, "invoice_created", fmt.Sprintf("package=%s payload=%s", pkg.Name, payload))
	return &InvoiceResult{InvoiceURL: url, Package: pkg}, nil
}

// HandleUpdate dispatches a raw webhook update to the payment branches.
// It never returns an error: the webhook must acknowledge everything
// with HTTP 200, so internal failures are logged only.
func (b *PaymentBridge) HandleUpdate(u telebot.Update) {
	switch {
	case u.PreCheckoutQuery != nil:
		b.handlePreCheckout(u.PreCheckoutQuery)
	case u.Message != nil && u.Message.Payment != nil:
		var chatID int64
		if u.Message.Chat != nil {
			chatID = u.Message.Chat.ID
		}
		b.handleSuccessfulPayment(chatID, u.Message.Payment)
	}
}

// handlePreCheckout validates the payload against the pending purchase
// recorded at invoice time and approves or declines. Telegram gives us
// about ten seconds; everything here is two indexed lookups.
func (b *PaymentBridge) handlePreCheckout(q *telebot.PreCheckoutQuery) {
	answer := func(ok bool, reason string) {
		if b.api == nil {
			return
		}
		if err := b.api.AnswerPreCheckout(q.ID, ok, reason); err != nil {
			logger.Error("", "pre_checkout_answer_failed", err.Error())
		}
	}

	parts := strings.Split(q.Payload, "|")
	if len(parts) < 2 {
		answer(false, "Invalid payload format")
		return
	}

	pending, err := storage.FindPendingPurchaseByPayload(q.Payload)
	if err != nil {
		logger.Error("", "pre_checkout_lookup_failed", err.Error())
		answer(false, "Something went wrong")
		return
	}
	if pending != nil {
		logger.Debug(pending.UserID, "pre_checkout_approved", "payload="+q.Payload)
		answer(true, "")
		return
	}

	// No pending row (bookkeeping is best-effort): approve only if the
	// truncated identifiers still resolve.
	user, err := storage.FindUserByIDPrefix(parts[0])
	if err != nil {
		logger.Error("", "pre_checkout_lookup_failed", err.Error())
		answer(false, "Something went wrong")
		return
	}
	if user == nil {
		answer(false, "User not found")
		return
	}
	pkg, err := storage.FindStarPackageByIDPrefix(parts[1])
	if err != nil {
		logger.Error("", "pre_checkout_lookup_failed", err.Error())
		answer(false, "Something went wrong")
		return
	}
	if pkg == nil {
		answer(false, "Package not found")
		return
	}

	logger.Debug(user.ID, "pre_checkout_approved_fallback", "payload="+q.Payload)
	answer(true, "")
}

// handleSuccessfulPayment resolves the payload back to a user and
// package, credits the wallet exactly once per charge ID and sends a
// confirmation message. Failures are logged for reconciliation; the
// charge stays recorded on the transaction either way.
func (b *PaymentBridge) handleSuccessfulPayment(chatID int64, payment *telebot.Payment) {
	pendingID, userID, packageID := "", "", ""

	pending, err := storage.FindPendingPurchaseByPayload(payment.Payload)
	if err != nil {
		logger.Error("", "payment_lookup_failed", err.Error())
		return
	}
	if pending != nil {
		pendingID = pending.ID
		userID = pending.UserID
		packageID = pendingMetadataPackage(pending)
	}

	if userID == "" || packageID == "" {
		parts := strings.Split(payment.Payload, "|")
		if len(parts) < 2 {
			logger.Error("", "payment_unresolvable", "payload="+payment.Payload)
			return
		}
		user, err := storage.FindUserByIDPrefix(parts[0])
		if err != nil || user == nil {
			logger.Error("", "payment_user_unresolved", "payload="+payment.Payload)
			return
		}
		pkg, err := storage.FindStarPackageByIDPrefix(parts[1])
		if err != nil || pkg == nil {
			logger.Error(user.ID, "payment_package_unresolved", "payload="+payment.Payload)
			return
		}
		userID = user.ID
		packageID = pkg.ID
	}

	pkg, err := storage.GetStarPackage(packageID)
	if err != nil || pkg == nil {
		logger.Error(userID, "payment_package_missing", "package="+packageID)
		return
	}

	bonusStars := pkg.StarsAmount * pkg.BonusPercent / 100
	totalStars := pkg.StarsAmount + bonusStars

	description := fmt.Sprintf("Stars purchase: %s", pkg.Name)
	if bonusStars > 0 {
		description += fmt.Sprintf(" (+%d bonus)", bonusStars)
	}
	metadata, _ := json.Marshal(map[string]interface{}{
		"package_id":         packageID,
		"original_amount":    pkg.StarsAmount,
		"bonus_amount":       bonusStars,
		"telegram_charge_id": payment.TelegramChargeID,
		"provider_charge_id": payment.ProviderChargeID,
	})

	credited, err := storage.SettleTelegramPurchase(pendingID, userID, payment.TelegramChargeID, totalStars, description, string(metadata))
	if err != nil {
		logger.Error(userID, "payment_settlement_failed", err.Error())
		return
	}
	if !credited {
		logger.Debug(userID, "payment_already_settled", "charge="+payment.TelegramChargeID)
		return
	}

	logger.Debug(userID, "payment_settled", fmt.Sprintf("stars=%d bonus=%d charge=%s", totalStars, bonusStars, payment.TelegramChargeID))

	if chatID != 0 && b.api != nil {
		text := fmt.Sprintf("\U0001F389 <b>Payment successful!</b>\n\n⭐ <b>%d Stars</b> added to your balance!\n", totalStars)
		if bonusStars > 0 {
			text += fmt.Sprintf("\U0001F381 Bonus: +%d Stars\n", bonusStars)
		}
		text += fmt.Sprintf("\U0001F4B3 Transaction: <code>%s</code>", payment.TelegramChargeID)
		if err := b.api.SendMessage(chatID, text); err != nil {
			logger.Error(userID, "payment_confirmation_failed", err.Error())
		}
	}
}

// pendingMetadataPackage recovers the package ID stored on a pending
// purchase row at invoice time.
func pendingMetadataPackage(t *storage.Transaction) string {
	var meta storage.InvoiceMetadata
	if err := json.Unmarshal([]byte(t.Metadata), &meta); err != nil {
		return ""
	}
	return meta.PackageID
}
