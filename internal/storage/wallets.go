package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CounterField names the lifetime counter a wallet mutation updates
// alongside the balance.
type CounterField string

const (
	CounterNone   CounterField = ""
	CounterEarned CounterField = "total_earned"
	CounterSpent  CounterField = "total_spent"
)

func (c CounterField) valid() bool {
	return c == CounterNone || c == CounterEarned || c == CounterSpent
}

// GetWallet retrieves a user's wallet, or nil if none exists yet
func GetWallet(userID string) (*Wallet, error) {
	return getWallet(db, userID)
}

func getWallet(q sqlx.Queryer, userID string) (*Wallet, error) {
	var wallet Wallet
	err := sqlx.Get(q, &wallet, `
		SELECT id, user_id, stars_balance, total_earned, total_spent,
		       total_withdrawn, pending_withdrawal, is_creator,
		       creator_verified, created_at, updated_at
		FROM wallets
		WHERE user_id = ?
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

// GetOrCreateWallet returns the user's wallet, creating an empty one if
// absent. The unique constraint on user_id makes concurrent creation
// safe: the loser of the race reads the winner's row.
func GetOrCreateWallet(userID string) (*Wallet, error) {
	return getOrCreateWallet(db, userID)
}

func getOrCreateWallet(e sqlx.Ext, userID string) (*Wallet, error) {
	wallet, err := getWallet(e, userID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}

	if _, err := e.Exec(`
		INSERT INTO wallets (id, user_id)
		VALUES (?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`, newID(), userID); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return getWallet(e, userID)
}

// CreditWallet increases a wallet's balance and, optionally, one of its
// lifetime counters. The wallet is created if it does not exist yet.
func CreditWallet(userID string, amount int64, counter CounterField) error {
	return creditWallet(db, userID, amount, counter)
}

// CreditWalletTx is CreditWallet within an open transaction
func CreditWalletTx(tx *sqlx.Tx, userID string, amount int64, counter CounterField) error {
	return creditWallet(tx, userID, amount, counter)
}

func creditWallet(e sqlx.Ext, userID string, amount int64, counter CounterField) error {
	if amount < 0 {
		return fmt.Errorf("credit amount must not be negative: %d", amount)
	}
	if !counter.valid() {
		return fmt.Errorf("unknown counter field: %s", counter)
	}

	query := `
		UPDATE wallets
		SET stars_balance = stars_balance + ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?`
	if counter != CounterNone {
		query = fmt.Sprintf(`
		UPDATE wallets
		SET stars_balance = stars_balance + ?, %s = %s + ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?`, counter, counter)
	}

	var res sql.Result
	var err error
	if counter != CounterNone {
		res, err = e.Exec(query, amount, amount, userID)
	} else {
		res, err = e.Exec(query, amount, userID)
	}
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		// No wallet yet: create it holding the credited amount
		earned := int64(0)
		if counter == CounterEarned {
			earned = amount
		}
		if _, err := e.Exec(`
			INSERT INTO wallets (id, user_id, stars_balance, total_earned)
			VALUES (?, ?, ?, ?)
		`, newID(), userID, amount, earned); err != nil {
			return fmt.Errorf("failed to create wallet for credit: %w", err)
		}
	}
	return nil
}

// DebitWallet decreases a wallet's balance, failing with
// ErrInsufficientFunds when the balance does not cover the amount. The
// balance check and the debit are a single conditional UPDATE so
// concurrent debits cannot overdraw the wallet.
func DebitWallet(userID string, amount int64, counter CounterField) error {
	return debitWallet(db, userID, amount, counter)
}

// DebitWalletTx is DebitWallet within an open transaction
func DebitWalletTx(tx *sqlx.Tx, userID string, amount int64, counter CounterField) error {
	return debitWallet(tx, userID, amount, counter)
}

func debitWallet(e sqlx.Ext, userID string, amount int64, counter CounterField) error {
	if amount < 0 {
		return fmt.Errorf("debit amount must not be negative: %d", amount)
	}
	if !counter.valid() {
		return fmt.Errorf("unknown counter field: %s", counter)
	}

	query := `
		UPDATE wallets
		SET stars_balance = stars_balance - ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND stars_balance >= ?`
	if counter != CounterNone {
		query = fmt.Sprintf(`
		UPDATE wallets
		SET stars_balance = stars_balance - ?, %s = %s + ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND stars_balance >= ?`, counter, counter)
	}

	var res sql.Result
	var err error
	if counter != CounterNone {
		res, err = e.Exec(query, amount, amount, userID, amount)
	} else {
		res, err = e.Exec(query, amount, userID, amount)
	}
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// EarmarkWithdrawal moves amount into the wallet's pending_withdrawal
// counter without touching the spendable balance. Fails with
// ErrInsufficientFunds when the balance does not cover the amount.
func EarmarkWithdrawalTx(tx *sqlx.Tx, userID string, amount int64) error {
	res, err := tx.Exec(`
		UPDATE wallets
		SET pending_withdrawal = pending_withdrawal + ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND stars_balance >= ?
	`, amount, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to earmark withdrawal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// MarkWalletCreator flags the wallet of a user who set up a creator
// profile. The wallet is created first if absent.
func MarkWalletCreator(userID string) error {
	if _, err := getOrCreateWallet(db, userID); err != nil {
		return err
	}
	if _, err := db.Exec(`
		UPDATE wallets
		SET is_creator = 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, userID); err != nil {
		return fmt.Errorf("failed to mark wallet creator: %w", err)
	}
	return nil
}
