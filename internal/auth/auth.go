package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"tanishuv/internal/logger"
)

// maxInitDataAge bounds how old a signed initData blob may be
const maxInitDataAge = 24 * time.Hour

// ValidateInitData validates a Telegram Mini App initData string
// against the bot token: HMAC-SHA256 signature and auth_date
// freshness, per Telegram's documented scheme (the signing key is
// HMAC_SHA256("WebAppData", botToken)). Returns the Telegram user ID.
func ValidateInitData(initData, botToken string) (int64, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, fmt.Errorf("malformed initData: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return 0, fmt.Errorf("hash not found in initData")
	}
	values.Del("hash")

	// Data check string: key=value pairs sorted by key, newline-joined
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	dataCheckString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	computed := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computed), []byte(hash)) {
		return 0, fmt.Errorf("invalid hash")
	}

	authDateStr := values.Get("auth_date")
	if authDateStr == "" {
		return 0, fmt.Errorf("auth_date not found")
	}
	var authDate int64
	if _, err := fmt.Sscanf(authDateStr, "%d", &authDate); err != nil {
		return 0, fmt.Errorf("invalid auth_date format")
	}
	if time.Now().Unix()-authDate > int64(maxInitDataAge.Seconds()) {
		return 0, fmt.Errorf("auth_date is too old")
	}

	userJSON := values.Get("user")
	if userJSON == "" {
		return 0, fmt.Errorf("user not found in initData")
	}
	userID, err := extractUserID(userJSON)
	if err != nil {
		return 0, fmt.Errorf("failed to parse user: %w", err)
	}
	return userID, nil
}

// extractUserID extracts the user ID from the user JSON string
func extractUserID(userJSON string) (int64, error) {
	prefix := `"id":`
	idx := strings.Index(userJSON, prefix)
	if idx == -1 {
		return 0, fmt.Errorf("id field not found")
	}

	start := idx + len(prefix)
	var numStr string
	for i := start; i < len(userJSON); i++ {
		if userJSON[i] >= '0' && userJSON[i] <= '9' {
			numStr += string(userJSON[i])
		} else if len(numStr) > 0 {
			break
		}
	}
	if len(numStr) == 0 {
		return 0, fmt.Errorf("user id not found")
	}

	var userID int64
	if _, err := fmt.Sscanf(numStr, "%d", &userID); err != nil {
		return 0, err
	}
	return userID, nil
}

// exempt paths: the webhook is called by Telegram itself and the ping
// endpoint is a liveness probe.
func exempt(path string) bool {
	return strings.HasSuffix(path, "/webhook") || strings.HasSuffix(path, "/ping")
}

// Middleware validates the X-Telegram-Init-Data header on Mini App
// routes. The webhook and liveness routes pass through untouched.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if exempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		initData := r.Header.Get("X-Telegram-Init-Data")
		if initData == "" {
			http.Error(w, "Unauthorized: missing X-Telegram-Init-Data header", http.StatusUnauthorized)
			return
		}

		if _, err := ValidateInitData(initData, os.Getenv("TELEGRAM_BOT_TOKEN")); err != nil {
			logger.Debug("", "auth_failed", err.Error())
			http.Error(w, "Unauthorized: invalid initData", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
