package storage

import (
	"errors"
	"testing"
)

func setupTestDB(t *testing.T) {
	// Use in-memory database for tests
	if err := InitDB(":memory:"); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
}

func cleanupTestDB(t *testing.T) {
	CloseDB()
}

func TestCreateUser(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	user, err := CreateUser(12345, "Test User")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID == "" {
		t.Error("Expected non-empty user ID")
	}
	if user.TelegramID != 12345 {
		t.Errorf("Expected TelegramID 12345, got %d", user.TelegramID)
	}

	// A wallet is created alongside the user
	wallet, err := GetWallet(user.ID)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if wallet.StarsBalance != 0 {
		t.Errorf("Expected zero initial balance, got %d", wallet.StarsBalance)
	}
}

func TestGetUserByTelegramIDNotFound(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	user, err := GetUserByTelegramID(99999999)
	if err != nil {
		t.Fatalf("GetUserByTelegramID should not fail for non-existent user: %v", err)
	}
	if user != nil {
		t.Error("Expected nil user for non-existent Telegram ID")
	}
}

func TestFindUserByIDPrefix(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	user, _ := CreateUser(11111, "Prefix Test")

	found, err := FindUserByIDPrefix(user.ID[:8])
	if err != nil {
		t.Fatalf("FindUserByIDPrefix failed: %v", err)
	}
	if found == nil {
		t.Fatal("Expected user, got nil")
	}
	if found.ID != user.ID {
		t.Errorf("Expected user %s, got %s", user.ID, found.ID)
	}

	// Unknown prefix resolves to nothing
	found, err = FindUserByIDPrefix("zzzzzzzz")
	if err != nil {
		t.Fatalf("FindUserByIDPrefix failed: %v", err)
	}
	if found != nil {
		t.Error("Expected nil for unknown prefix")
	}
}

func TestGetOrCreateWallet(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	// No user row required: wallet creation is lazy
	wallet, err := GetOrCreateWallet("some-user-id")
	if err != nil {
		t.Fatalf("GetOrCreateWallet failed: %v", err)
	}
	if wallet.UserID != "some-user-id" {
		t.Errorf("Expected user_id 'some-user-id', got %s", wallet.UserID)
	}
	if wallet.StarsBalance != 0 {
		t.Errorf("Expected zero balance, got %d", wallet.StarsBalance)
	}

	// Second call returns the same wallet
	again, err := GetOrCreateWallet("some-user-id")
	if err != nil {
		t.Fatalf("GetOrCreateWallet failed: %v", err)
	}
	if again.ID != wallet.ID {
		t.Errorf("Expected wallet %s, got %s", wallet.ID, again.ID)
	}
}

func TestCreditWallet(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	if err := CreditWallet("u1", 100, CounterNone); err != nil {
		t.Fatalf("CreditWallet failed: %v", err)
	}
	if err := CreditWallet("u1", 45, CounterEarned); err != nil {
		t.Fatalf("CreditWallet failed: %v", err)
	}

	wallet, _ := GetWallet("u1")
	if wallet.StarsBalance != 145 {
		t.Errorf("Expected balance 145, got %d", wallet.StarsBalance)
	}
	if wallet.TotalEarned != 45 {
		t.Errorf("Expected total earned 45, got %d", wallet.TotalEarned)
	}
}

func TestCreditWalletNegativeAmount(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	if err := CreditWallet("u1", -10, CounterNone); err == nil {
		t.Error("Expected error for negative credit")
	}
}

func TestDebitWallet(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	_ = CreditWallet("u1", 100, CounterNone)

	if err := DebitWallet("u1", 60, CounterSpent); err != nil {
		t.Fatalf("DebitWallet failed: %v", err)
	}

	wallet, _ := GetWallet("u1")
	if wallet.StarsBalance != 40 {
		t.Errorf("Expected balance 40, got %d", wallet.StarsBalance)
	}
	if wallet.TotalSpent != 60 {
		t.Errorf("Expected total spent 60, got %d", wallet.TotalSpent)
	}
}

func TestDebitWalletInsufficientFunds(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	_ = CreditWallet("u1", 50, CounterNone)

	err := DebitWallet("u1", 51, CounterSpent)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}

	// Balance untouched after the failed debit
	wallet, _ := GetWallet("u1")
	if wallet.StarsBalance != 50 {
		t.Errorf("Expected balance 50, got %d", wallet.StarsBalance)
	}
}

func TestDebitWalletMissingWallet(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	err := DebitWallet("nobody", 10, CounterSpent)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds for missing wallet, got %v", err)
	}
}

func TestListCompletedTransactionsExcludesPending(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	_ = InsertTransaction(&Transaction{
		UserID: "u1", Type: TypeTip, Amount: 50, NetAmount: 45, Fee: 5,
	})
	_ = InsertTransaction(&Transaction{
		UserID: "u1", Type: TypePurchase, Amount: 100, NetAmount: 100,
		Status: StatusPending,
	})

	history, err := ListCompletedTransactions("u1", 10)
	if err != nil {
		t.Fatalf("ListCompletedTransactions failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected 1 completed transaction, got %d", len(history))
	}
	if history[0].Type != TypeTip {
		t.Errorf("Expected tip transaction, got %s", history[0].Type)
	}
}

func TestFindPendingPurchaseByPayload(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	_ = InsertTransaction(&Transaction{
		UserID: "u1", Type: TypePurchase, Amount: 100, NetAmount: 100,
		Status: StatusPending, Payload: "abc12345|pkg56789|1700000000000",
	})

	found, err := FindPendingPurchaseByPayload("abc12345|pkg56789|1700000000000")
	if err != nil {
		t.Fatalf("FindPendingPurchaseByPayload failed: %v", err)
	}
	if found == nil {
		t.Fatal("Expected pending purchase, got nil")
	}
	if found.UserID != "u1" {
		t.Errorf("Expected user u1, got %s", found.UserID)
	}

	found, _ = FindPendingPurchaseByPayload("unknown|payload|0")
	if found != nil {
		t.Error("Expected nil for unknown payload")
	}
}

func TestSettleTelegramPurchase(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	pending := &Transaction{
		UserID: "u1", Type: TypePurchase, Amount: 500, NetAmount: 500,
		Status: StatusPending, Payload: "u1prefix|pkgprefix|1700000000000",
	}
	_ = InsertTransaction(pending)

	credited, err := SettleTelegramPurchase(pending.ID, "u1", "charge-1", 550, "Purchased 500 Stars", "{}")
	if err != nil {
		t.Fatalf("SettleTelegramPurchase failed: %v", err)
	}
	if !credited {
		t.Fatal("Expected first settlement to credit")
	}

	wallet, _ := GetWallet("u1")
	if wallet.StarsBalance != 550 {
		t.Errorf("Expected balance 550, got %d", wallet.StarsBalance)
	}
	// Top-ups do not count as earnings
	if wallet.TotalEarned != 0 {
		t.Errorf("Expected total earned 0, got %d", wallet.TotalEarned)
	}

	// The pending row transitioned instead of a second row appearing
	updated, _ := GetTransaction(pending.ID)
	if updated.Status != StatusCompleted {
		t.Errorf("Expected completed status, got %s", updated.Status)
	}
	if updated.Amount != 550 {
		t.Errorf("Expected amount 550, got %d", updated.Amount)
	}
	if updated.TelegramPaymentID != "charge-1" {
		t.Errorf("Expected charge-1, got %s", updated.TelegramPaymentID)
	}
}

func TestSettleTelegramPurchaseIdempotent(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	credited, err := SettleTelegramPurchase("", "u1", "charge-dup", 100, "Purchased 100 Stars", "{}")
	if err != nil || !credited {
		t.Fatalf("First settlement failed: credited=%v err=%v", credited, err)
	}

	// Redelivery of the same charge must not credit again
	credited, err = SettleTelegramPurchase("", "u1", "charge-dup", 100, "Purchased 100 Stars", "{}")
	if err != nil {
		t.Fatalf("Redelivery failed: %v", err)
	}
	if credited {
		t.Error("Expected redelivery to be a no-op")
	}

	wallet, _ := GetWallet("u1")
	if wallet.StarsBalance != 100 {
		t.Errorf("Expected balance 100 after duplicate webhook, got %d", wallet.StarsBalance)
	}
}

func TestSettleTelegramPurchaseWithoutPendingRow(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	credited, err := SettleTelegramPurchase("", "u1", "charge-2", 100, "Purchased 100 Stars", "{}")
	if err != nil {
		t.Fatalf("SettleTelegramPurchase failed: %v", err)
	}
	if !credited {
		t.Fatal("Expected settlement to credit")
	}

	history, _ := ListCompletedTransactions("u1", 10)
	if len(history) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(history))
	}
	if history[0].TelegramPaymentID != "charge-2" {
		t.Errorf("Expected charge-2, got %s", history[0].TelegramPaymentID)
	}
}

func TestExpirePendingPurchases(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	stale := &Transaction{
		UserID: "u1", Type: TypePurchase, Amount: 100, NetAmount: 100,
		Status: StatusPending, Payload: "stale|payload|0",
	}
	_ = InsertTransaction(stale)
	fresh := &Transaction{
		UserID: "u1", Type: TypePurchase, Amount: 100, NetAmount: 100,
		Status: StatusPending, Payload: "fresh|payload|0",
	}
	_ = InsertTransaction(fresh)

	// Backdate one row past the sweep horizon
	if _, err := db.Exec(`
		UPDATE transactions SET created_at = datetime('now', '-48 hours') WHERE id = ?
	`, stale.ID); err != nil {
		t.Fatalf("Failed to backdate transaction: %v", err)
	}

	swept, err := ExpirePendingPurchases(24)
	if err != nil {
		t.Fatalf("ExpirePendingPurchases failed: %v", err)
	}
	if swept != 1 {
		t.Errorf("Expected 1 swept row, got %d", swept)
	}

	staleRow, _ := GetTransaction(stale.ID)
	if staleRow.Status != StatusFailed {
		t.Errorf("Expected failed status, got %s", staleRow.Status)
	}
	freshRow, _ := GetTransaction(fresh.ID)
	if freshRow.Status != StatusPending {
		t.Errorf("Expected fresh row to stay pending, got %s", freshRow.Status)
	}
}

func TestStarPackageCatalog(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	packages, err := GetStarPackages()
	if err != nil {
		t.Fatalf("GetStarPackages failed: %v", err)
	}
	if len(packages) != 4 {
		t.Fatalf("Expected 4 seeded packages, got %d", len(packages))
	}
	// Seeded in ascending size order
	if packages[0].StarsAmount != 100 {
		t.Errorf("Expected first package of 100 Stars, got %d", packages[0].StarsAmount)
	}

	pkg, err := GetStarPackage(packages[1].ID)
	if err != nil {
		t.Fatalf("GetStarPackage failed: %v", err)
	}
	if pkg == nil || pkg.StarsAmount != 500 {
		t.Errorf("Expected 500 Star package, got %+v", pkg)
	}

	byPrefix, err := FindStarPackageByIDPrefix(packages[2].ID[:8])
	if err != nil {
		t.Fatalf("FindStarPackageByIDPrefix failed: %v", err)
	}
	if byPrefix == nil || byPrefix.ID != packages[2].ID {
		t.Errorf("Expected package %s by prefix, got %+v", packages[2].ID, byPrefix)
	}
}

func TestGiftCatalog(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	gifts, err := GetGifts()
	if err != nil {
		t.Fatalf("GetGifts failed: %v", err)
	}
	if len(gifts) == 0 {
		t.Fatal("Expected seeded gifts")
	}

	gift, err := GetGift(gifts[0].ID)
	if err != nil {
		t.Fatalf("GetGift failed: %v", err)
	}
	if gift == nil {
		t.Fatal("Expected gift, got nil")
	}

	missing, _ := GetGift("no-such-gift")
	if missing != nil {
		t.Error("Expected nil for unknown gift")
	}
}

func TestEarmarkWithdrawal(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	_ = CreditWallet("u1", 2000, CounterNone)

	tx, err := db.Beginx()
	if err != nil {
		t.Fatalf("Beginx failed: %v", err)
	}
	if err := EarmarkWithdrawalTx(tx, "u1", 1000); err != nil {
		tx.Rollback()
		t.Fatalf("EarmarkWithdrawalTx failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// Earmarking reserves without debiting
	wallet, _ := GetWallet("u1")
	if wallet.StarsBalance != 2000 {
		t.Errorf("Expected balance 2000, got %d", wallet.StarsBalance)
	}
	if wallet.PendingWithdrawal != 1000 {
		t.Errorf("Expected pending withdrawal 1000, got %d", wallet.PendingWithdrawal)
	}
}

func TestUpsertCreatorProfile(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	profile, err := UpsertCreatorProfile(&CreatorProfile{
		UserID:              "creator-1",
		SubscriptionEnabled: true,
		SubscriptionPrice:   300,
		TipsEnabled:         true,
		MinTipAmount:        10,
	})
	if err != nil {
		t.Fatalf("UpsertCreatorProfile failed: %v", err)
	}
	if profile.SubscriptionPrice != 300 {
		t.Errorf("Expected subscription price 300, got %d", profile.SubscriptionPrice)
	}

	// Profile creation flags the wallet as a creator wallet
	wallet, _ := GetWallet("creator-1")
	if wallet == nil || !wallet.IsCreator {
		t.Error("Expected creator flag on wallet")
	}

	// Update in place
	updated, err := UpsertCreatorProfile(&CreatorProfile{
		UserID:            "creator-1",
		SubscriptionPrice: 500,
		TipsEnabled:       true,
		MinTipAmount:      20,
	})
	if err != nil {
		t.Fatalf("UpsertCreatorProfile update failed: %v", err)
	}
	if updated.SubscriptionPrice != 500 {
		t.Errorf("Expected subscription price 500, got %d", updated.SubscriptionPrice)
	}

	fetched, _ := GetCreatorProfile("creator-1")
	if fetched == nil || fetched.MinTipAmount != 20 {
		t.Errorf("Expected min tip 20, got %+v", fetched)
	}
}

func TestCreatePaidContent(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	content, err := CreatePaidContent("creator-1", "photo", "Sunset shoot", 75)
	if err != nil {
		t.Fatalf("CreatePaidContent failed: %v", err)
	}
	if content.ID == "" {
		t.Error("Expected non-empty content ID")
	}
	if !content.IsActive {
		t.Error("Expected new content to be active")
	}

	listed, err := ListCreatorContent("creator-1")
	if err != nil {
		t.Fatalf("ListCreatorContent failed: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("Expected 1 content item, got %d", len(listed))
	}
}
