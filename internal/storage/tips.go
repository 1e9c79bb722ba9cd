package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InsertTipTx records a delivered tip, linked to its debit transaction
func InsertTipTx(tx *sqlx.Tx, t *Tip) error {
	if t.ID == "" {
		t.ID = newID()
	}
	if _, err := tx.Exec(`
		INSERT INTO tips (id, sender_id, receiver_id, amount, message, is_anonymous, transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.SenderID, t.ReceiverID, t.Amount, t.Message, t.IsAnonymous, t.TransactionID); err != nil {
		return fmt.Errorf("failed to insert tip: %w", err)
	}
	return nil
}

// InsertSentGiftTx records a delivered gift, linked to its debit transaction
func InsertSentGiftTx(tx *sqlx.Tx, g *SentGift) error {
	if g.ID == "" {
		g.ID = newID()
	}
	if _, err := tx.Exec(`
		INSERT INTO sent_gifts (id, sender_id, receiver_id, gift_id, message, is_anonymous, transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.SenderID, g.ReceiverID, g.GiftID, g.Message, g.IsAnonymous, g.TransactionID); err != nil {
		return fmt.Errorf("failed to insert sent gift: %w", err)
	}
	return nil
}
