package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tanishuv/internal/logger"
	"tanishuv/internal/storage"

	"github.com/jmoiron/sqlx"
)

// Settlement failure taxonomy. Handlers map these to HTTP statuses with
// errors.Is; messages are user-visible.
var (
	ErrInsufficientFunds      = storage.ErrInsufficientFunds
	ErrTipBelowMinimum        = errors.New("tip below minimum")
	ErrWithdrawalBelowMinimum = errors.New("withdrawal below minimum")
	ErrAlreadySubscribed      = errors.New("already subscribed")
	ErrAlreadyPurchased       = errors.New("content already purchased")
	ErrGiftNotFound           = errors.New("gift not found")
	ErrContentNotFound        = errors.New("content not found")
	ErrPackageNotFound        = errors.New("star package not found")
	ErrInvalidPayoutMethod    = errors.New("invalid payout method")
)

// Settings centralizes the platform's commission rules. Rates are whole
// percents; all amounts are Stars.
type Settings struct {
	CommissionPercent    int64
	MinTip               int64
	MinWithdrawal        int64
	WithdrawalFeePercent int64
	WithdrawalFeeMin     int64
}

// DefaultSettings returns the production commission rules
func DefaultSettings() Settings {
	return Settings{
		CommissionPercent:    10,
		MinTip:               10,
		MinWithdrawal:        1000,
		WithdrawalFeePercent: 2,
		WithdrawalFeeMin:     50,
	}
}

// Receipt summarizes a settled peer-to-peer payment
type Receipt struct {
	Amount    int64 `json:"amount"`
	Fee       int64 `json:"fee"`
	NetAmount int64 `json:"netAmount"`
}

// SettlementService composes wallet mutations and ledger writes into
// atomic operations. Every operation runs in a single database
// transaction: a failed write rolls back the debit with it.
type SettlementService struct {
	cfg Settings
}

// NewSettlementService creates a settlement service with the given rules
func NewSettlementService(cfg Settings) *SettlementService {
	return &SettlementService{cfg: cfg}
}

// Settings returns the service's commission rules
func (s *SettlementService) Settings() Settings {
	return s.cfg
}

// commissionFee applies the flat platform commission to peer-to-peer
// types; self-directed types carry no fee.
func (s *SettlementService) commissionFee(t storage.TransactionType, amount int64) int64 {
	if t.PeerToPeer() {
		return amount * s.cfg.CommissionPercent / 100
	}
	return 0
}

func beginSettlement(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := storage.DB().BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// settlePeerToPeer debits the payer by the gross amount, credits the
// payee with the net amount and writes the mandatory pair of ledger
// rows, all within the caller's transaction. Returns the payer's row so
// detail records can link to it.
func (s *SettlementService) settlePeerToPeer(tx *sqlx.Tx, t storage.TransactionType,
	payerID, payeeID string, amount int64, contentID, contentType, payerDesc, payeeDesc string) (*storage.Transaction, error) {

	fee := s.commissionFee(t, amount)
	net := amount - fee

	if err := storage.DebitWalletTx(tx, payerID, amount, storage.CounterSpent); err != nil {
		return nil, err
	}
	if err := storage.CreditWalletTx(tx, payeeID, net, storage.CounterEarned); err != nil {
		return nil, err
	}

	debit := &storage.Transaction{
		UserID:        payerID,
		Type:          t,
		Amount:        amount,
		Fee:           fee,
		NetAmount:     net,
		RelatedUserID: payeeID,
		ContentID:     contentID,
		ContentType:   contentType,
		Description:   payerDesc,
	}
	if err := storage.InsertTransactionTx(tx, debit); err != nil {
		return nil, err
	}
	if err := storage.InsertTransactionTx(tx, &storage.Transaction{
		UserID:        payeeID,
		Type:          storage.TypeEarning,
		Amount:        net,
		NetAmount:     net,
		RelatedUserID: payerID,
		ContentID:     contentID,
		ContentType:   contentType,
		Description:   payeeDesc,
	}); err != nil {
		return nil, err
	}
	return debit, nil
}

// SendTip transfers a tip from sender to receiver, minus commission.
// The minimum tip is enforced here, not in callers.
func (s *SettlementService) SendTip(ctx context.Context, senderID, receiverID string, amount int64, message string, isAnonymous bool) (*Receipt, error) {
	if amount < s.cfg.MinTip {
		return nil, fmt.Errorf("%w: minimum is %d stars", ErrTipBelowMinimum, s.cfg.MinTip)
	}

	tx, err := beginSettlement(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	debit, err := s.settlePeerToPeer(tx, storage.TypeTip, senderID, receiverID, amount,
		"", "", "Tip sent", "Tip received")
	if err != nil {
		return nil, err
	}

	if err := storage.InsertTipTx(tx, &storage.Tip{
		SenderID:      senderID,
		ReceiverID:    receiverID,
		Amount:        amount,
		Message:       message,
		IsAnonymous:   isAnonymous,
		TransactionID: debit.ID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug(senderID, "tip_sent", fmt.Sprintf("receiver=%s amount=%d fee=%d net=%d", receiverID, amount, debit.Fee, debit.NetAmount))
	return &Receipt{Amount: amount, Fee: debit.Fee, NetAmount: debit.NetAmount}, nil
}

// SendGift sends a catalog gift, settling its price like a tip
func (s *SettlementService) SendGift(ctx context.Context, senderID, receiverID, giftID string, message string, isAnonymous bool) (*Receipt, error) {
	gift, err := storage.GetGift(giftID)
	if err != nil {
		return nil, err
	}
	if gift == nil {
		return nil, ErrGiftNotFound
	}

	tx, err := beginSettlement(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	debit, err := s.settlePeerToPeer(tx, storage.TypeGift, senderID, receiverID, gift.Price,
		"", "gift", fmt.Sprintf("Gift: %s", gift.Name), "Gift received")
	if err != nil {
		return nil, err
	}

	if err := storage.InsertSentGiftTx(tx, &storage.SentGift{
		SenderID:      senderID,
		ReceiverID:    receiverID,
		GiftID:        giftID,
		Message:       message,
		IsAnonymous:   isAnonymous,
		TransactionID: debit.ID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug(senderID, "gift_sent", fmt.Sprintf("receiver=%s gift=%s amount=%d", receiverID, gift.Name, gift.Price))
	return &Receipt{Amount: gift.Price, Fee: debit.Fee, NetAmount: debit.NetAmount}, nil
}

// SubscribeToCreator settles a subscription payment and creates or
// renews the subscription row. A still-active subscription blocks a
// second payment for the same pair.
func (s *SettlementService) SubscribeToCreator(ctx context.Context, subscriberID, creatorID string, price int64, durationDays int) (*Receipt, error) {
	if durationDays <= 0 {
		durationDays = 30
	}

	tx, err := beginSettlement(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	existing, err := storage.GetActiveSubscriptionTx(tx, subscriberID, creatorID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ExpiresAt.After(time.Now()) {
		return nil, ErrAlreadySubscribed
	}

	debit, err := s.settlePeerToPeer(tx, storage.TypeSubscription, subscriberID, creatorID, price,
		"", "subscription", "Subscription payment", "Subscription income")
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().AddDate(0, 0, durationDays)
	if err := storage.UpsertSubscriptionTx(tx, subscriberID, creatorID, price, expiresAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug(subscriberID, "subscribed", fmt.Sprintf("creator=%s price=%d expires=%s", creatorID, price, expiresAt.Format(time.RFC3339)))
	return &Receipt{Amount: price, Fee: debit.Fee, NetAmount: debit.NetAmount}, nil
}

// PurchaseContent unlocks a paid content item for the buyer. The
// duplicate check runs before any debit, backed by the unique
// constraint on (buyer, content).
func (s *SettlementService) PurchaseContent(ctx context.Context, buyerID, contentID string) (*Receipt, error) {
	content, err := storage.GetPaidContent(contentID)
	if err != nil {
		return nil, err
	}
	if content == nil || !content.IsActive {
		return nil, ErrContentNotFound
	}

	tx, err := beginSettlement(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	purchased, err := storage.HasPurchasedContentTx(tx, buyerID, contentID)
	if err != nil {
		return nil, err
	}
	if purchased {
		return nil, ErrAlreadyPurchased
	}

	debit, err := s.settlePeerToPeer(tx, storage.TypeContentUnlock, buyerID, content.CreatorID, content.Price,
		content.ID, content.Type, fmt.Sprintf("Content unlock: %s", content.Type), "Content sold")
	if err != nil {
		return nil, err
	}

	if err := storage.RecordContentPurchaseTx(tx, buyerID, contentID, debit.ID, content.Price); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug(buyerID, "content_purchased", fmt.Sprintf("content=%s price=%d", contentID, content.Price))
	return &Receipt{Amount: content.Price, Fee: debit.Fee, NetAmount: debit.NetAmount}, nil
}

var payoutMethods = map[string]bool{
	"telegram_stars": true,
	"card":           true,
	"crypto":         true,
}

// RequestWithdrawal earmarks part of the balance for payout. The Stars
// stay on the balance until an operator resolves the request; only
// pending_withdrawal moves here.
func (s *SettlementService) RequestWithdrawal(ctx context.Context, userID string, amount int64, method, payoutDetails string) (*storage.WithdrawalRequest, error) {
	if !payoutMethods[method] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayoutMethod, method)
	}

	wallet, err := storage.GetWallet(userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil || wallet.StarsBalance < amount {
		return nil, ErrInsufficientFunds
	}
	if amount < s.cfg.MinWithdrawal {
		return nil, fmt.Errorf("%w: minimum is %d stars", ErrWithdrawalBelowMinimum, s.cfg.MinWithdrawal)
	}

	fee := amount * s.cfg.WithdrawalFeePercent / 100
	if fee < s.cfg.WithdrawalFeeMin {
		fee = s.cfg.WithdrawalFeeMin
	}

	tx, err := beginSettlement(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := storage.EarmarkWithdrawalTx(tx, userID, amount); err != nil {
		return nil, err
	}

	request := &storage.WithdrawalRequest{
		UserID:        userID,
		Amount:        amount,
		Fee:           fee,
		NetAmount:     amount - fee,
		Method:        method,
		PayoutDetails: payoutDetails,
		Status:        storage.WithdrawalPending,
	}
	if err := storage.InsertWithdrawalRequestTx(tx, request); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug(userID, "withdrawal_requested", fmt.Sprintf("amount=%d fee=%d method=%s", amount, fee, method))
	return request, nil
}
