package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// CreatePaidContent inserts a new priced content item
func CreatePaidContent(creatorID, contentType, title string, price int64) (*PaidContent, error) {
	id := newID()
	if _, err := db.Exec(`
		INSERT INTO paid_content (id, creator_id, type, title, price)
		VALUES (?, ?, ?, ?, ?)
	`, id, creatorID, contentType, title, price); err != nil {
		return nil, fmt.Errorf("failed to create paid content: %w", err)
	}
	return GetPaidContent(id)
}

// GetPaidContent retrieves a content item by ID, or nil if absent
func GetPaidContent(id string) (*PaidContent, error) {
	var content PaidContent
	err := db.Get(&content, `
		SELECT id, creator_id, type, title, price, purchase_count, is_active, created_at
		FROM paid_content
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get paid content: %w", err)
	}
	return &content, nil
}

// ListCreatorContent returns a creator's active content, newest first
func ListCreatorContent(creatorID string) ([]PaidContent, error) {
	content := []PaidContent{}
	err := db.Select(&content, `
		SELECT id, creator_id, type, title, price, purchase_count, is_active, created_at
		FROM paid_content
		WHERE creator_id = ? AND is_active = 1
		ORDER BY created_at DESC
	`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list creator content: %w", err)
	}
	return content, nil
}

// HasPurchasedContent reports whether the buyer already unlocked the item
func HasPurchasedContent(buyerID, contentID string) (bool, error) {
	return hasPurchasedContent(db, buyerID, contentID)
}

func hasPurchasedContent(q sqlx.Queryer, buyerID, contentID string) (bool, error) {
	var count int
	err := sqlx.Get(q, &count, `
		SELECT COUNT(*) FROM content_purchases
		WHERE buyer_id = ? AND content_id = ?
	`, buyerID, contentID)
	if err != nil {
		return false, fmt.Errorf("failed to check content purchase: %w", err)
	}
	return count > 0, nil
}

// HasPurchasedContentTx is HasPurchasedContent within an open transaction
func HasPurchasedContentTx(tx *sqlx.Tx, buyerID, contentID string) (bool, error) {
	return hasPurchasedContent(tx, buyerID, contentID)
}

// RecordContentPurchaseTx inserts the purchase row and bumps the item's
// purchase counter. The (buyer, content) unique constraint backs the
// no-double-purchase invariant even under concurrent buyers.
func RecordContentPurchaseTx(tx *sqlx.Tx, buyerID, contentID, transactionID string, pricePaid int64) error {
	if _, err := tx.Exec(`
		INSERT INTO content_purchases (id, buyer_id, content_id, price_paid, transaction_id)
		VALUES (?, ?, ?, ?, ?)
	`, newID(), buyerID, contentID, pricePaid, transactionID); err != nil {
		return fmt.Errorf("failed to record content purchase: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE paid_content SET purchase_count = purchase_count + 1 WHERE id = ?
	`, contentID); err != nil {
		return fmt.Errorf("failed to bump purchase count: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE creator_profiles SET total_content_sold = total_content_sold + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = (SELECT creator_id FROM paid_content WHERE id = ?)
	`, contentID); err != nil {
		return fmt.Errorf("failed to bump content sold counter: %w", err)
	}
	return nil
}

// GetActiveSubscriptionTx returns the subscription row for the pair
// regardless of expiry, or nil if none exists.
func GetActiveSubscriptionTx(tx *sqlx.Tx, subscriberID, creatorID string) (*Subscription, error) {
	var sub Subscription
	err := tx.Get(&sub, `
		SELECT id, subscriber_id, creator_id, price_paid, status, started_at, expires_at, renewed_at
		FROM subscriptions
		WHERE subscriber_id = ? AND creator_id = ? AND status = ?
	`, subscriberID, creatorID, SubscriptionActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// GetSubscription returns the pair's subscription row, or nil
func GetSubscription(subscriberID, creatorID string) (*Subscription, error) {
	var sub Subscription
	err := db.Get(&sub, `
		SELECT id, subscriber_id, creator_id, price_paid, status, started_at, expires_at, renewed_at
		FROM subscriptions
		WHERE subscriber_id = ? AND creator_id = ?
	`, subscriberID, creatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// UpsertSubscriptionTx creates or renews the pair's subscription in
// place. Renewing extends the existing row rather than duplicating it.
func UpsertSubscriptionTx(tx *sqlx.Tx, subscriberID, creatorID string, pricePaid int64, expiresAt time.Time) error {
	if _, err := tx.Exec(`
		INSERT INTO subscriptions (id, subscriber_id, creator_id, price_paid, status, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (subscriber_id, creator_id) DO UPDATE SET
			price_paid = excluded.price_paid,
			status = excluded.status,
			expires_at = excluded.expires_at,
			renewed_at = CURRENT_TIMESTAMP
	`, newID(), subscriberID, creatorID, pricePaid, SubscriptionActive, expiresAt.UTC()); err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE creator_profiles SET total_subscribers = total_subscribers + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, creatorID); err != nil {
		return fmt.Errorf("failed to bump subscriber counter: %w", err)
	}
	return nil
}

// GetCreatorProfile retrieves a creator's monetization settings, or nil
func GetCreatorProfile(userID string) (*CreatorProfile, error) {
	var profile CreatorProfile
	err := db.Get(&profile, `
		SELECT id, user_id, subscription_enabled, subscription_price,
		       default_photo_price, default_story_price, default_message_price,
		       tips_enabled, min_tip_amount, total_subscribers, total_content_sold,
		       payout_method, payout_details, created_at, updated_at
		FROM creator_profiles
		WHERE user_id = ?
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get creator profile: %w", err)
	}
	return &profile, nil
}

// UpsertCreatorProfile creates or updates a creator's monetization
// settings and flags the wallet as a creator wallet.
func UpsertCreatorProfile(p *CreatorProfile) (*CreatorProfile, error) {
	if p.PayoutDetails == "" {
		p.PayoutDetails = "{}"
	}
	if _, err := db.Exec(`
		INSERT INTO creator_profiles (
			id, user_id, subscription_enabled, subscription_price,
			default_photo_price, default_story_price, default_message_price,
			tips_enabled, min_tip_amount, payout_method, payout_details
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			subscription_enabled = excluded.subscription_enabled,
			subscription_price = excluded.subscription_price,
			default_photo_price = excluded.default_photo_price,
			default_story_price = excluded.default_story_price,
			default_message_price = excluded.default_message_price,
			tips_enabled = excluded.tips_enabled,
			min_tip_amount = excluded.min_tip_amount,
			payout_method = excluded.payout_method,
			payout_details = excluded.payout_details,
			updated_at = CURRENT_TIMESTAMP
	`, newID(), p.UserID, p.SubscriptionEnabled, p.SubscriptionPrice,
		p.DefaultPhotoPrice, p.DefaultStoryPrice, p.DefaultMessagePrice,
		p.TipsEnabled, p.MinTipAmount, p.PayoutMethod, p.PayoutDetails); err != nil {
		return nil, fmt.Errorf("failed to upsert creator profile: %w", err)
	}

	if err := MarkWalletCreator(p.UserID); err != nil {
		return nil, err
	}
	return GetCreatorProfile(p.UserID)
}
