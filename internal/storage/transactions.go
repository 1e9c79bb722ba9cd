package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InsertTransactionTx persists a single ledger row within an open
// transaction. Fee and net amount are expected to be computed by the
// caller (the settlement engine owns the commission policy).
func InsertTransactionTx(tx *sqlx.Tx, t *Transaction) error {
	return insertTransaction(tx, t)
}

// InsertTransaction persists a single ledger row
func InsertTransaction(t *Transaction) error {
	return insertTransaction(db, t)
}

func insertTransaction(e sqlx.Ext, t *Transaction) error {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Status == "" {
		t.Status = StatusCompleted
	}
	if t.Metadata == "" {
		t.Metadata = "{}"
	}
	if _, err := e.Exec(`
		INSERT INTO transactions (
			id, user_id, type, amount, fee, net_amount, status,
			related_user_id, content_id, content_type,
			telegram_payment_id, payload, description, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.Type, t.Amount, t.Fee, t.NetAmount, t.Status,
		t.RelatedUserID, t.ContentID, t.ContentType,
		t.TelegramPaymentID, t.Payload, t.Description, t.Metadata); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a ledger row by ID, or nil if absent
func GetTransaction(id string) (*Transaction, error) {
	var t Transaction
	err := db.Get(&t, `SELECT * FROM transactions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &t, nil
}

// ListCompletedTransactions returns a user's completed ledger rows,
// newest first. Pending and failed rows are in-flight or dead state and
// stay out of user-visible history.
func ListCompletedTransactions(userID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	transactions := []Transaction{}
	err := db.Select(&transactions, `
		SELECT * FROM transactions
		WHERE user_id = ? AND status = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, StatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// FindPendingPurchaseByPayload looks up the pending purchase row
// recorded at invoice time by its correlation payload.
func FindPendingPurchaseByPayload(payload string) (*Transaction, error) {
	if payload == "" {
		return nil, nil
	}
	var t Transaction
	err := db.Get(&t, `
		SELECT * FROM transactions
		WHERE payload = ? AND type = ? AND status = ?
	`, payload, TypePurchase, StatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending purchase: %w", err)
	}
	return &t, nil
}

// IsChargeSettled reports whether a completed transaction already
// carries the given Telegram charge ID.
func IsChargeSettled(chargeID string) (bool, error) {
	var count int
	err := db.Get(&count, `
		SELECT COUNT(*) FROM transactions
		WHERE telegram_payment_id = ?
	`, chargeID)
	if err != nil {
		return false, fmt.Errorf("failed to check charge: %w", err)
	}
	return count > 0, nil
}

// SettleTelegramPurchase credits totalStars to the user's wallet and
// transitions the matching pending purchase row to completed, stamping
// the Telegram charge ID. When no pending row exists (bookkeeping at
// invoice time is best-effort) a completed row is inserted instead.
//
// The operation is idempotent per charge ID: Telegram redelivers the
// webhook on anything but a fast 200, and a redelivery must not credit
// the wallet twice. Returns false when the charge was already settled.
func SettleTelegramPurchase(pendingID, userID, chargeID string, totalStars int64, description, metadata string) (bool, error) {
	tx, err := db.Beginx()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var settled int
	if err := tx.Get(&settled, `
		SELECT COUNT(*) FROM transactions WHERE telegram_payment_id = ?
	`, chargeID); err != nil {
		return false, fmt.Errorf("failed to check charge: %w", err)
	}
	if settled > 0 {
		return false, nil
	}

	completed := false
	if pendingID != "" {
		res, err := tx.Exec(`
			UPDATE transactions
			SET status = ?, amount = ?, net_amount = ?,
			    telegram_payment_id = ?, description = ?, metadata = ?
			WHERE id = ? AND status = ?
		`, StatusCompleted, totalStars, totalStars, chargeID, description, metadata, pendingID, StatusPending)
		if err != nil {
			return false, fmt.Errorf("failed to complete pending purchase: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to read affected rows: %w", err)
		}
		completed = affected > 0
	}

	if !completed {
		if err := insertTransaction(tx, &Transaction{
			UserID:            userID,
			Type:              TypePurchase,
			Amount:            totalStars,
			NetAmount:         totalStars,
			Status:            StatusCompleted,
			TelegramPaymentID: chargeID,
			Description:       description,
			Metadata:          metadata,
		}); err != nil {
			return false, err
		}
	}

	// Purchases credit the spendable balance only; lifetime earnings
	// track peer-to-peer income, not top-ups.
	if err := creditWallet(tx, userID, totalStars, CounterNone); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// ExpirePendingPurchases marks pending purchase rows older than the
// given age as failed so abandoned checkouts do not accumulate.
// Returns the number of rows swept.
func ExpirePendingPurchases(maxAgeHours int) (int64, error) {
	res, err := db.Exec(fmt.Sprintf(`
		UPDATE transactions
		SET status = ?
		WHERE type = ? AND status = ?
		  AND created_at < datetime('now', '-%d hours')
	`, maxAgeHours), StatusFailed, TypePurchase, StatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending purchases: %w", err)
	}
	swept, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return swept, nil
}
