package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InsertWithdrawalRequestTx persists a pending withdrawal request
// within an open transaction.
func InsertWithdrawalRequestTx(tx *sqlx.Tx, w *WithdrawalRequest) error {
	if w.ID == "" {
		w.ID = newID()
	}
	if w.Status == "" {
		w.Status = WithdrawalPending
	}
	if w.PayoutDetails == "" {
		w.PayoutDetails = "{}"
	}
	if _, err := tx.Exec(`
		INSERT INTO withdrawal_requests (id, user_id, amount, fee, net_amount, method, payout_details, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, w.ID, w.UserID, w.Amount, w.Fee, w.NetAmount, w.Method, w.PayoutDetails, w.Status); err != nil {
		return fmt.Errorf("failed to insert withdrawal request: %w", err)
	}
	return nil
}

// ListWithdrawalRequests returns a user's withdrawal requests, newest first
func ListWithdrawalRequests(userID string) ([]WithdrawalRequest, error) {
	requests := []WithdrawalRequest{}
	err := db.Select(&requests, `
		SELECT id, user_id, amount, fee, net_amount, method, payout_details, status, created_at
		FROM withdrawal_requests
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawal requests: %w", err)
	}
	return requests, nil
}
