package storage

import (
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var db *sqlx.DB

// InitDB initializes the SQLite database connection with WAL mode
func InitDB(dbPath string) error {
	path := dbPath
	if dbPath != ":memory:" {
		abs, err := filepath.Abs(dbPath)
		if err != nil {
			return err
		}
		path = abs
	}

	var err error
	db, err = sqlx.Open("sqlite", path)
	if err != nil {
		return err
	}

	// Each connection to :memory: is a separate database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return err
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return err
	}

	if err := runMigrations(); err != nil {
		return err
	}

	return seedCatalog()
}

// DB returns the database connection
func DB() *sqlx.DB {
	return db
}

// CloseDB closes the database connection
func CloseDB() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// runMigrations creates the necessary tables
func runMigrations() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			telegram_id INTEGER UNIQUE NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS wallets (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL,
			stars_balance INTEGER NOT NULL DEFAULT 0 CHECK (stars_balance >= 0),
			total_earned INTEGER NOT NULL DEFAULT 0,
			total_spent INTEGER NOT NULL DEFAULT 0,
			total_withdrawn INTEGER NOT NULL DEFAULT 0,
			pending_withdrawal INTEGER NOT NULL DEFAULT 0,
			is_creator INTEGER NOT NULL DEFAULT 0,
			creator_verified INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			amount INTEGER NOT NULL,
			fee INTEGER NOT NULL DEFAULT 0,
			net_amount INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'completed',
			related_user_id TEXT NOT NULL DEFAULT '',
			content_id TEXT NOT NULL DEFAULT '',
			content_type TEXT NOT NULL DEFAULT '',
			telegram_payment_id TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_payload ON transactions(payload) WHERE payload != ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_charge_id
			ON transactions(telegram_payment_id) WHERE telegram_payment_id != ''`,

		`CREATE TABLE IF NOT EXISTS star_packages (
			id TEXT PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			stars_amount INTEGER NOT NULL,
			price_stars INTEGER NOT NULL,
			bonus_percent INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS gifts (
			id TEXT PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			emoji TEXT NOT NULL DEFAULT '',
			price INTEGER NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS tips (
			id TEXT PRIMARY KEY,
			sender_id TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			is_anonymous INTEGER NOT NULL DEFAULT 0,
			transaction_id TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS sent_gifts (
			id TEXT PRIMARY KEY,
			sender_id TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			gift_id TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			is_anonymous INTEGER NOT NULL DEFAULT 0,
			transaction_id TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS creator_profiles (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL,
			subscription_enabled INTEGER NOT NULL DEFAULT 0,
			subscription_price INTEGER NOT NULL DEFAULT 0,
			default_photo_price INTEGER NOT NULL DEFAULT 0,
			default_story_price INTEGER NOT NULL DEFAULT 0,
			default_message_price INTEGER NOT NULL DEFAULT 0,
			tips_enabled INTEGER NOT NULL DEFAULT 1,
			min_tip_amount INTEGER NOT NULL DEFAULT 10,
			total_subscribers INTEGER NOT NULL DEFAULT 0,
			total_content_sold INTEGER NOT NULL DEFAULT 0,
			payout_method TEXT NOT NULL DEFAULT '',
			payout_details TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS subscriptions (
			id TEXT PRIMARY KEY,
			subscriber_id TEXT NOT NULL,
			creator_id TEXT NOT NULL,
			price_paid INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME NOT NULL,
			renewed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (subscriber_id, creator_id)
		)`,

		`CREATE TABLE IF NOT EXISTS paid_content (
			id TEXT PRIMARY KEY,
			creator_id TEXT NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			price INTEGER NOT NULL,
			purchase_count INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS content_purchases (
			id TEXT PRIMARY KEY,
			buyer_id TEXT NOT NULL,
			content_id TEXT NOT NULL,
			price_paid INTEGER NOT NULL,
			transaction_id TEXT NOT NULL DEFAULT '',
			purchased_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (buyer_id, content_id)
		)`,

		`CREATE TABLE IF NOT EXISTS withdrawal_requests (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			fee INTEGER NOT NULL,
			net_amount INTEGER NOT NULL,
			method TEXT NOT NULL,
			payout_details TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_user_id ON withdrawal_requests(user_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// seedCatalog inserts the default star packages and gifts on first run.
// Existing rows are left untouched.
func seedCatalog() error {
	var packages int
	if err := db.Get(&packages, `SELECT COUNT(*) FROM star_packages`); err != nil {
		return fmt.Errorf("failed to count star packages: %w", err)
	}
	if packages == 0 {
		seed := []StarPackage{
			{Name: "Starter", StarsAmount: 100, PriceStars: 100, BonusPercent: 0, SortOrder: 1},
			{Name: "Popular", StarsAmount: 500, PriceStars: 500, BonusPercent: 10, SortOrder: 2},
			{Name: "Premium", StarsAmount: 1000, PriceStars: 1000, BonusPercent: 15, SortOrder: 3},
			{Name: "Mega", StarsAmount: 5000, PriceStars: 5000, BonusPercent: 20, SortOrder: 4},
		}
		for _, p := range seed {
			if _, err := db.Exec(`
				INSERT INTO star_packages (id, name, stars_amount, price_stars, bonus_percent, is_active, sort_order)
				VALUES (?, ?, ?, ?, ?, 1, ?)
			`, newID(), p.Name, p.StarsAmount, p.PriceStars, p.BonusPercent, p.SortOrder); err != nil {
				return fmt.Errorf("failed to seed star package %s: %w", p.Name, err)
			}
		}
	}

	var gifts int
	if err := db.Get(&gifts, `SELECT COUNT(*) FROM gifts`); err != nil {
		return fmt.Errorf("failed to count gifts: %w", err)
	}
	if gifts == 0 {
		seed := []Gift{
			{Name: "Rose", Emoji: "\U0001F339", Price: 10, SortOrder: 1},
			{Name: "Heart", Emoji: "❤️", Price: 25, SortOrder: 2},
			{Name: "Teddy Bear", Emoji: "\U0001F9F8", Price: 50, SortOrder: 3},
			{Name: "Bouquet", Emoji: "\U0001F490", Price: 100, SortOrder: 4},
			{Name: "Ring", Emoji: "\U0001F48D", Price: 500, SortOrder: 5},
		}
		for _, g := range seed {
			if _, err := db.Exec(`
				INSERT INTO gifts (id, name, emoji, price, is_active, sort_order)
				VALUES (?, ?, ?, ?, 1, ?)
			`, newID(), g.Name, g.Emoji, g.Price, g.SortOrder); err != nil {
				return fmt.Errorf("failed to seed gift %s: %w", g.Name, err)
			}
		}
	}

	return nil
}
