package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"tanishuv/internal/storage"

	"gopkg.in/telebot.v3"
)

// stubTelegramAPI records bridge calls instead of hitting the Bot API
type stubTelegramAPI struct {
	invoiceParams  []InvoiceParams
	invoiceErr     error
	answers        []bool
	answerReasons  []string
	messages       []string
	messageChatIDs []int64
}

func (s *stubTelegramAPI) CreateInvoiceLink(params InvoiceParams) (string, error) {
	if s.invoiceErr != nil {
		return "", s.invoiceErr
	}
	s.invoiceParams = append(s.invoiceParams, params)
	return "https://t.me/invoice/test", nil
}

func (s *stubTelegramAPI) AnswerPreCheckout(queryID string, ok bool, errorMessage string) error {
	s.answers = append(s.answers, ok)
	s.answerReasons = append(s.answerReasons, errorMessage)
	return nil
}

func (s *stubTelegramAPI) SendMessage(chatID int64, text string) error {
	s.messages = append(s.messages, text)
	s.messageChatIDs = append(s.messageChatIDs, chatID)
	return nil
}

func popularPackage(t *testing.T) *storage.StarPackage {
	packages, err := storage.GetStarPackages()
	if err != nil {
		t.Fatalf("GetStarPackages failed: %v", err)
	}
	for i := range packages {
		if packages[i].BonusPercent > 0 {
			return &packages[i]
		}
	}
	t.Fatal("Expected a seeded package with a bonus")
	return nil
}

func TestCreateInvoice(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	user, _ := storage.CreateUser(12345, "Buyer")
	pkg := popularPackage(t)

	api := &stubTelegramAPI{}
	bridge := NewPaymentBridge(api)

	result, err := bridge.CreateInvoice(user.ID, pkg.ID, 12345)
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	if result.InvoiceURL != "https://t.me/invoice/test" {
		t.Errorf("Unexpected invoice URL: %s", result.InvoiceURL)
	}
	if result.Package.ID != pkg.ID {
		t.Errorf("Expected package %s, got %s", pkg.ID, result.Package.ID)
	}

	if len(api.invoiceParams) != 1 {
		t.Fatalf("Expected 1 invoice call, got %d", len(api.invoiceParams))
	}
	params := api.invoiceParams[0]
	if params.Currency != "XTR" {
		t.Errorf("Expected XTR currency, got %s", params.Currency)
	}
	if len(params.Prices) != 1 || params.Prices[0].Amount != pkg.PriceStars {
		t.Errorf("Expected single price of %d, got %+v", pkg.PriceStars, params.Prices)
	}

	// Payload carries truncated user and package IDs plus a timestamp
	parts := strings.Split(params.Payload, "|")
	if len(parts) != 3 {
		t.Fatalf("Expected 3 payload segments, got %q", params.Payload)
	}
	if !strings.HasPrefix(user.ID, parts[0]) {
		t.Errorf("Payload user segment %q is not a prefix of %s", parts[0], user.ID)
	}
	if !strings.HasPrefix(pkg.ID, parts[1]) {
		t.Errorf("Payload package segment %q is not a prefix of %s", parts[1], pkg.ID)
	}
	if len(params.Payload) > 128 {
		t.Errorf("Payload exceeds 128 bytes: %d", len(params.Payload))
	}

	// A pending purchase row was recorded for the webhook to complete
	pending, err := storage.FindPendingPurchaseByPayload(params.Payload)
	if err != nil {
		t.Fatalf("FindPendingPurchaseByPayload failed: %v", err)
	}
	if pending == nil {
		t.Fatal("Expected pending purchase row")
	}
	if pending.UserID != user.ID {
		t.Errorf("Expected pending row for %s, got %s", user.ID, pending.UserID)
	}

	// No wallet credit until the payment confirms
	wallet, _ := storage.GetWallet(user.ID)
	if wallet.StarsBalance != 0 {
		t.Errorf("Expected zero balance before payment, got %d", wallet.StarsBalance)
	}
}

func TestCreateInvoiceUnknownPackage(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	bridge := NewPaymentBridge(&stubTelegramAPI{})
	_, err := bridge.CreateInvoice("u1", "no-such-package", 0)
	if !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("Expected ErrPackageNotFound, got %v", err)
	}
}

func TestCreateInvoiceNotConfigured(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	bridge := NewPaymentBridge(nil)
	if bridge.Configured() {
		t.Error("Expected unconfigured bridge")
	}
	_, err := bridge.CreateInvoice("u1", "pkg", 0)
	if !errors.Is(err, ErrBotNotConfigured) {
		t.Errorf("Expected ErrBotNotConfigured, got %v", err)
	}
}

func TestCreateInvoiceAPIError(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	pkg := popularPackage(t)
	bridge := NewPaymentBridge(&stubTelegramAPI{invoiceErr: errors.New("bad request")})
	_, err := bridge.CreateInvoice("u1", pkg.ID, 0)
	if !errors.Is(err, ErrTelegramAPI) {
		t.Errorf("Expected ErrTelegramAPI, got %v", err)
	}
}

func TestPreCheckoutApproved(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	user, _ := storage.CreateUser(12345, "Buyer")
	pkg := popularPackage(t)

	api := &stubTelegramAPI{}
	bridge := NewPaymentBridge(api)
	_, err := bridge.CreateInvoice(user.ID, pkg.ID, 12345)
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	payload := api.invoiceParams[0].Payload

	bridge.HandleUpdate(telebot.Update{
		PreCheckoutQuery: &telebot.PreCheckoutQuery{
			ID:      "pcq-1",
			Payload: payload,
		},
	})

	if len(api.answers) != 1 {
		t.Fatalf("Expected 1 pre-checkout answer, got %d", len(api.answers))
	}
	if !api.answers[0] {
		t.Errorf("Expected approval, got decline: %s", api.answerReasons[0])
	}
}

func TestPreCheckoutDeclinedBadPayload(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	api := &stubTelegramAPI{}
	bridge := NewPaymentBridge(api)

	bridge.HandleUpdate(telebot.Update{
		PreCheckoutQuery: &telebot.PreCheckoutQuery{
			ID:      "pcq-1",
			Payload: "garbage",
		},
	})

	if len(api.answers) != 1 || api.answers[0] {
		t.Fatalf("Expected a decline, got %+v", api.answers)
	}
}

func TestPreCheckoutFallbackWithoutPendingRow(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	user, _ := storage.CreateUser(12345, "Buyer")
	pkg := popularPackage(t)

	api := &stubTelegramAPI{}
	bridge := NewPaymentBridge(api)

	// No invoice bookkeeping happened; the truncated IDs still resolve
	payload := fmt.Sprintf("%s|%s|%d", shortID(user.ID), shortID(pkg.ID), time.Now().UnixMilli())
	bridge.HandleUpdate(telebot.Update{
		PreCheckoutQuery: &telebot.PreCheckoutQuery{
			ID:      "pcq-1",
			Payload: payload,
		},
	})

	if len(api.answers) != 1 || !api.answers[0] {
		t.Fatalf("Expected fallback approval, got %+v", api.answers)
	}
}

func TestPreCheckoutDeclinedUnknownUser(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	api := &stubTelegramAPI{}
	bridge := NewPaymentBridge(api)

	bridge.HandleUpdate(telebot.Update{
		PreCheckoutQuery: &telebot.PreCheckoutQuery{
			ID:      "pcq-1",
			Payload: "deadbeef|cafebabe|1700000000000",
		},
	})

	if len(api.answers) != 1 || api.answers[0] {
		t.Fatalf("Expected a decline, got %+v", api.answers)
	}
}

func TestSuccessfulPaymentSettles(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	user, _ := storage.CreateUser(12345, "Buyer")
	pkg := popularPackage(t)

	api := &stubTelegramAPI{}
	bridge := NewPaymentBridge(api)
	_, err := bridge.CreateInvoice(user.ID, pkg.ID, 12345)
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	payload := api.invoiceParams[0].Payload

	update := telebot.Update{
		Message: &telebot.Message{
			Chat: &telebot.Chat{ID: 12345},
			Payment: &telebot.Payment{
				Payload:          payload,
				TelegramChargeID: "charge-1",
				Currency:         "XTR",
				Total:            int(pkg.PriceStars),
			},
		},
	}
	bridge.HandleUpdate(update)

	wantTotal := pkg.StarsAmount + pkg.StarsAmount*pkg.BonusPercent/100
	wallet, _ := storage.GetWallet(user.ID)
	if wallet.StarsBalance != wantTotal {
		t.Errorf("Expected balance %d with bonus, got %d", wantTotal, wallet.StarsBalance)
	}

	// The pending row became the completed one; no extra row appeared
	history, _ := storage.ListCompletedTransactions(user.ID, 10)
	if len(history) != 1 {
		t.Fatalf("Expected 1 completed transaction, got %d", len(history))
	}
	if history[0].TelegramPaymentID != "charge-1" {
		t.Errorf("Expected charge-1 on transaction, got %s", history[0].TelegramPaymentID)
	}
	if history[0].Amount != wantTotal {
		t.Errorf("Expected transaction amount %d, got %d", wantTotal, history[0].Amount)
	}

	// Confirmation message went to the chat
	if len(api.messages) != 1 || api.messageChatIDs[0] != 12345 {
		t.Fatalf("Expected 1 confirmation message to chat 12345, got %+v", api.messageChatIDs)
	}

	// Telegram redelivers on slow acks; the charge settles only once
	bridge.HandleUpdate(update)
	wallet, _ = storage.GetWallet(user.ID)
	if wallet.StarsBalance != wantTotal {
		t.Errorf("Expected balance %d after redelivery, got %d", wantTotal, wallet.StarsBalance)
	}
	if len(api.messages) != 1 {
		t.Errorf("Expected no second confirmation, got %d", len(api.messages))
	}
}

func TestSuccessfulPaymentFallbackWithoutPendingRow(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	user, _ := storage.CreateUser(12345, "Buyer")
	pkg := popularPackage(t)

	api := &stubTelegramAPI{}
	bridge := NewPaymentBridge(api)

	payload := fmt.Sprintf("%s|%s|%d", shortID(user.ID), shortID(pkg.ID), time.Now().UnixMilli())
	bridge.HandleUpdate(telebot.Update{
		Message: &telebot.Message{
			Chat: &telebot.Chat{ID: 12345},
			Payment: &telebot.Payment{
				Payload:          payload,
				TelegramChargeID: "charge-2",
			},
		},
	})

	wantTotal := pkg.StarsAmount + pkg.StarsAmount*pkg.BonusPercent/100
	wallet, _ := storage.GetWallet(user.ID)
	if wallet == nil || wallet.StarsBalance != wantTotal {
		t.Errorf("Expected balance %d via fallback, got %+v", wantTotal, wallet)
	}
}

func TestSweepWorkerExpiresStalePending(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	stale := &storage.Transaction{
		UserID: "u1", Type: storage.TypePurchase, Amount: 100, NetAmount: 100,
		Status: storage.StatusPending, Payload: "stale|payload|0",
	}
	if err := storage.InsertTransaction(stale); err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}
	if _, err := storage.DB().Exec(`
		UPDATE transactions SET created_at = datetime('now', '-48 hours') WHERE id = ?
	`, stale.ID); err != nil {
		t.Fatalf("Failed to backdate transaction: %v", err)
	}

	worker := NewSweepWorker(60, 24)
	worker.Start()
	worker.Stop()

	row, _ := storage.GetTransaction(stale.ID)
	if row.Status != storage.StatusFailed {
		t.Errorf("Expected swept row to be failed, got %s", row.Status)
	}
}
