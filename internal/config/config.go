package config

import (
	"os"
	"strconv"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	// Server
	Port            string
	RequireInitData bool

	// Telegram
	BotToken  string
	WebAppURL string

	// Database
	DatabasePath string

	// Settlement rules
	CommissionPercent    int64
	MinTip               int64
	MinWithdrawal        int64
	WithdrawalFeePercent int64
	WithdrawalFeeMin     int64

	// Pending purchase sweep
	SweepIntervalMinutes int
	PendingMaxAgeHours   int
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		RequireInitData: getEnvBool("REQUIRE_INIT_DATA", false),

		BotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebAppURL: getEnv("WEB_APP_URL", "http://localhost:8080"),

		DatabasePath: getEnv("DATABASE_PATH", "./data/tanishuv.db"),

		CommissionPercent:    getEnvInt64("COMMISSION_PERCENT", 10),
		MinTip:               getEnvInt64("MIN_TIP_STARS", 10),
		MinWithdrawal:        getEnvInt64("MIN_WITHDRAWAL_STARS", 1000),
		WithdrawalFeePercent: getEnvInt64("WITHDRAWAL_FEE_PERCENT", 2),
		WithdrawalFeeMin:     getEnvInt64("WITHDRAWAL_FEE_MIN_STARS", 50),

		SweepIntervalMinutes: getEnvInt("SWEEP_INTERVAL_MINUTES", 10),
		PendingMaxAgeHours:   getEnvInt("PENDING_MAX_AGE_HOURS", 24),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
