package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

// GetUserByTelegramID retrieves a user by their Telegram ID
func GetUserByTelegramID(telegramID int64) (*User, error) {
	var user User
	err := db.Get(&user, `
		SELECT id, telegram_id, name, created_at
		FROM users
		WHERE telegram_id = ?
	`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram_id: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by their internal ID
func GetUserByID(id string) (*User, error) {
	var user User
	err := db.Get(&user, `
		SELECT id, telegram_id, name, created_at
		FROM users
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// FindUserByIDPrefix resolves a truncated user ID as carried in the
// invoice payload. Returns nil when zero or multiple users match.
func FindUserByIDPrefix(prefix string) (*User, error) {
	if prefix == "" {
		return nil, nil
	}
	var users []User
	err := db.Select(&users, `
		SELECT id, telegram_id, name, created_at
		FROM users
		WHERE id LIKE ? || '%'
		LIMIT 2
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by prefix: %w", err)
	}
	if len(users) != 1 {
		return nil, nil
	}
	return &users[0], nil
}

// CreateUser creates a new user together with an empty wallet
func CreateUser(telegramID int64, name string) (*User, error) {
	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	userID := newID()
	if _, err := tx.Exec(`
		INSERT INTO users (id, telegram_id, name)
		VALUES (?, ?, ?)
	`, userID, telegramID, name); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO wallets (id, user_id)
		VALUES (?, ?)
	`, newID(), userID); err != nil {
		return nil, fmt.Errorf("failed to insert wallet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return GetUserByID(userID)
}
