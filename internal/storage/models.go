package storage

import (
	"time"
)

// User represents a user in the system
type User struct {
	ID         string    `json:"id" db:"id"`
	TelegramID int64     `json:"telegram_id" db:"telegram_id"`
	Name       string    `json:"name" db:"name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Wallet holds a user's spendable Stars balance and lifetime counters.
// One row per user, created lazily on first access.
type Wallet struct {
	ID                string    `json:"id" db:"id"`
	UserID            string    `json:"user_id" db:"user_id"`
	StarsBalance      int64     `json:"stars_balance" db:"stars_balance"`
	TotalEarned       int64     `json:"total_earned" db:"total_earned"`
	TotalSpent        int64     `json:"total_spent" db:"total_spent"`
	TotalWithdrawn    int64     `json:"total_withdrawn" db:"total_withdrawn"`
	PendingWithdrawal int64     `json:"pending_withdrawal" db:"pending_withdrawal"`
	IsCreator         bool      `json:"is_creator" db:"is_creator"`
	CreatorVerified   bool      `json:"creator_verified" db:"creator_verified"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// TransactionType classifies a ledger event
type TransactionType string

const (
	TypePurchase       TransactionType = "purchase"
	TypeTip            TransactionType = "tip"
	TypeSubscription   TransactionType = "subscription"
	TypeContentUnlock  TransactionType = "content_unlock"
	TypeStoryView      TransactionType = "story_view"
	TypeMessagePayment TransactionType = "message_payment"
	TypeGift           TransactionType = "gift"
	TypeEarning        TransactionType = "earning"
	TypeWithdrawal     TransactionType = "withdrawal"
	TypeRefund         TransactionType = "refund"
	TypeBonus          TransactionType = "bonus"
)

// PeerToPeer reports whether the type moves Stars between two users and
// therefore carries the platform commission.
func (t TransactionType) PeerToPeer() bool {
	switch t {
	case TypeTip, TypeSubscription, TypeContentUnlock, TypeStoryView, TypeMessagePayment, TypeGift:
		return true
	}
	return false
}

// TransactionStatus represents the status of a ledger entry
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusRefunded  TransactionStatus = "refunded"
	StatusCancelled TransactionStatus = "cancelled"
)

// Transaction is one row of the append-mostly ledger. Optional string
// columns use the empty string rather than NULL.
type Transaction struct {
	ID                string            `json:"id" db:"id"`
	UserID            string            `json:"user_id" db:"user_id"`
	Type              TransactionType   `json:"type" db:"type"`
	Amount            int64             `json:"amount" db:"amount"`
	Fee               int64             `json:"fee" db:"fee"`
	NetAmount         int64             `json:"net_amount" db:"net_amount"`
	Status            TransactionStatus `json:"status" db:"status"`
	RelatedUserID     string            `json:"related_user_id,omitempty" db:"related_user_id"`
	ContentID         string            `json:"content_id,omitempty" db:"content_id"`
	ContentType       string            `json:"content_type,omitempty" db:"content_type"`
	TelegramPaymentID string            `json:"telegram_payment_id,omitempty" db:"telegram_payment_id"`
	Payload           string            `json:"payload,omitempty" db:"payload"`
	Description       string            `json:"description,omitempty" db:"description"`
	Metadata          string            `json:"metadata,omitempty" db:"metadata"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
}

// InvoiceMetadata is the schema of the metadata blob stored on pending
// purchase transactions, used to recover full identifiers from the
// truncated invoice payload.
type InvoiceMetadata struct {
	UserID         string `json:"user_id"`
	PackageID      string `json:"package_id"`
	StarsAmount    int64  `json:"stars_amount"`
	TelegramUserID int64  `json:"telegram_user_id"`
	Timestamp      int64  `json:"timestamp"`
	Payload        string `json:"payload"`
}

// StarPackage is a purchasable Stars bundle. PriceStars is the cost in
// Telegram's native XTR currency, StarsAmount the in-app Stars credited.
type StarPackage struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	StarsAmount  int64  `json:"stars_amount" db:"stars_amount"`
	PriceStars   int64  `json:"price_stars" db:"price_stars"`
	BonusPercent int64  `json:"bonus_percent" db:"bonus_percent"`
	IsActive     bool   `json:"is_active" db:"is_active"`
	SortOrder    int64  `json:"sort_order" db:"sort_order"`
}

// Gift is a catalog entry users can send each other
type Gift struct {
	ID        string `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Emoji     string `json:"emoji" db:"emoji"`
	Price     int64  `json:"price" db:"price"`
	IsActive  bool   `json:"is_active" db:"is_active"`
	SortOrder int64  `json:"sort_order" db:"sort_order"`
}

// Tip records a sent tip, linked to its debit transaction
type Tip struct {
	ID            string    `json:"id" db:"id"`
	SenderID      string    `json:"sender_id" db:"sender_id"`
	ReceiverID    string    `json:"receiver_id" db:"receiver_id"`
	Amount        int64     `json:"amount" db:"amount"`
	Message       string    `json:"message,omitempty" db:"message"`
	IsAnonymous   bool      `json:"is_anonymous" db:"is_anonymous"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// SentGift records a delivered gift, linked to its debit transaction
type SentGift struct {
	ID            string    `json:"id" db:"id"`
	SenderID      string    `json:"sender_id" db:"sender_id"`
	ReceiverID    string    `json:"receiver_id" db:"receiver_id"`
	GiftID        string    `json:"gift_id" db:"gift_id"`
	Message       string    `json:"message,omitempty" db:"message"`
	IsAnonymous   bool      `json:"is_anonymous" db:"is_anonymous"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CreatorProfile holds a creator's monetization settings
type CreatorProfile struct {
	ID                  string    `json:"id" db:"id"`
	UserID              string    `json:"user_id" db:"user_id"`
	SubscriptionEnabled bool      `json:"subscription_enabled" db:"subscription_enabled"`
	SubscriptionPrice   int64     `json:"subscription_price" db:"subscription_price"`
	DefaultPhotoPrice   int64     `json:"default_photo_price" db:"default_photo_price"`
	DefaultStoryPrice   int64     `json:"default_story_price" db:"default_story_price"`
	DefaultMessagePrice int64     `json:"default_message_price" db:"default_message_price"`
	TipsEnabled         bool      `json:"tips_enabled" db:"tips_enabled"`
	MinTipAmount        int64     `json:"min_tip_amount" db:"min_tip_amount"`
	TotalSubscribers    int64     `json:"total_subscribers" db:"total_subscribers"`
	TotalContentSold    int64     `json:"total_content_sold" db:"total_content_sold"`
	PayoutMethod        string    `json:"payout_method,omitempty" db:"payout_method"`
	PayoutDetails       string    `json:"payout_details,omitempty" db:"payout_details"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionPaused    SubscriptionStatus = "paused"
)

// Subscription is a subscriber's access to a creator. At most one row
// per (subscriber, creator) pair; renewals extend it in place.
type Subscription struct {
	ID           string             `json:"id" db:"id"`
	SubscriberID string             `json:"subscriber_id" db:"subscriber_id"`
	CreatorID    string             `json:"creator_id" db:"creator_id"`
	PricePaid    int64              `json:"price_paid" db:"price_paid"`
	Status       SubscriptionStatus `json:"status" db:"status"`
	StartedAt    time.Time          `json:"started_at" db:"started_at"`
	ExpiresAt    time.Time          `json:"expires_at" db:"expires_at"`
	RenewedAt    time.Time          `json:"renewed_at" db:"renewed_at"`
}

// PaidContent is a priced content item owned by a creator
type PaidContent struct {
	ID            string    `json:"id" db:"id"`
	CreatorID     string    `json:"creator_id" db:"creator_id"`
	Type          string    `json:"type" db:"type"`
	Title         string    `json:"title,omitempty" db:"title"`
	Price         int64     `json:"price" db:"price"`
	PurchaseCount int64     `json:"purchase_count" db:"purchase_count"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ContentPurchase records a buyer unlocking a content item. Unique per
// (buyer, content) pair.
type ContentPurchase struct {
	ID            string    `json:"id" db:"id"`
	BuyerID       string    `json:"buyer_id" db:"buyer_id"`
	ContentID     string    `json:"content_id" db:"content_id"`
	PricePaid     int64     `json:"price_paid" db:"price_paid"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	PurchasedAt   time.Time `json:"purchased_at" db:"purchased_at"`
}

// WithdrawalStatus represents the status of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "pending"
	WithdrawalProcessing WithdrawalStatus = "processing"
	WithdrawalCompleted  WithdrawalStatus = "completed"
	WithdrawalRejected   WithdrawalStatus = "rejected"
	WithdrawalCancelled  WithdrawalStatus = "cancelled"
)

// WithdrawalRequest earmarks part of a wallet for payout. The balance
// itself is only debited when an operator resolves the request.
type WithdrawalRequest struct {
	ID            string           `json:"id" db:"id"`
	UserID        string           `json:"user_id" db:"user_id"`
	Amount        int64            `json:"amount" db:"amount"`
	Fee           int64            `json:"fee" db:"fee"`
	NetAmount     int64            `json:"net_amount" db:"net_amount"`
	Method        string           `json:"method" db:"method"`
	PayoutDetails string           `json:"payout_details,omitempty" db:"payout_details"`
	Status        WithdrawalStatus `json:"status" db:"status"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}
