package service

import (
	"context"
	"fmt"

	"tanishuv/internal/storage"
)

// RecordOptions carries the optional fields of a ledger entry
type RecordOptions struct {
	RelatedUserID     string
	ContentID         string
	ContentType       string
	TelegramPaymentID string
	Payload           string
	Description       string
	Metadata          string
	Status            storage.TransactionStatus
}

// RecordTransaction writes a ledger row, computing fee and net amount
// from the commission policy. When a counterparty is set and the fee is
// positive, the paired earning row crediting the counterparty is
// written in the same database transaction: the pairing is mandatory,
// a failed second write rolls back the first.
//
// This records ledger state only; wallet balances are mutated by the
// settlement operations, not here.
func (s *SettlementService) RecordTransaction(ctx context.Context, userID string, t storage.TransactionType, amount int64, opts RecordOptions) (*storage.Transaction, error) {
	fee := s.commissionFee(t, amount)
	net := amount - fee

	tx, err := beginSettlement(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry := &storage.Transaction{
		UserID:            userID,
		Type:              t,
		Amount:            amount,
		Fee:               fee,
		NetAmount:         net,
		Status:            opts.Status,
		RelatedUserID:     opts.RelatedUserID,
		ContentID:         opts.ContentID,
		ContentType:       opts.ContentType,
		TelegramPaymentID: opts.TelegramPaymentID,
		Payload:           opts.Payload,
		Description:       opts.Description,
		Metadata:          opts.Metadata,
	}
	if err := storage.InsertTransactionTx(tx, entry); err != nil {
		return nil, err
	}

	if opts.RelatedUserID != "" && fee > 0 {
		if err := storage.InsertTransactionTx(tx, &storage.Transaction{
			UserID:        opts.RelatedUserID,
			Type:          storage.TypeEarning,
			Amount:        net,
			NetAmount:     net,
			RelatedUserID: userID,
			ContentID:     opts.ContentID,
			ContentType:   opts.ContentType,
			Description:   fmt.Sprintf("Income: %s", t),
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entry, nil
}

// TransactionHistory returns the user's completed ledger rows, newest
// first, bounded by limit.
func (s *SettlementService) TransactionHistory(userID string, limit int) ([]storage.Transaction, error) {
	return storage.ListCompletedTransactions(userID, limit)
}
