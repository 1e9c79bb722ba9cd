package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"
)

const testBotToken = "123456:TEST-TOKEN"

// signInitData builds a signed initData query string the way Telegram
// clients do.
func signInitData(botToken string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+fields[key])
	}
	dataCheckString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	hash := hex.EncodeToString(mac.Sum(nil))

	values := url.Values{}
	for key, value := range fields {
		values.Set(key, value)
	}
	values.Set("hash", hash)
	return values.Encode()
}

func TestValidateInitData(t *testing.T) {
	initData := signInitData(testBotToken, map[string]string{
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
		"user":      `{"id":12345,"first_name":"Test"}`,
	})

	userID, err := ValidateInitData(initData, testBotToken)
	if err != nil {
		t.Fatalf("ValidateInitData failed: %v", err)
	}
	if userID != 12345 {
		t.Errorf("Expected user ID 12345, got %d", userID)
	}
}

func TestValidateInitDataWrongToken(t *testing.T) {
	initData := signInitData("999:OTHER-TOKEN", map[string]string{
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
		"user":      `{"id":12345}`,
	})

	if _, err := ValidateInitData(initData, testBotToken); err == nil {
		t.Error("Expected error for initData signed with a different token")
	}
}

func TestValidateInitDataTampered(t *testing.T) {
	initData := signInitData(testBotToken, map[string]string{
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
		"user":      `{"id":12345}`,
	})
	tampered := strings.Replace(initData, "12345", "99999", 1)

	if _, err := ValidateInitData(tampered, testBotToken); err == nil {
		t.Error("Expected error for tampered initData")
	}
}

func TestValidateInitDataMissingHash(t *testing.T) {
	if _, err := ValidateInitData("auth_date=1&user=%7B%22id%22%3A1%7D", testBotToken); err == nil {
		t.Error("Expected error for initData without hash")
	}
}

func TestValidateInitDataExpired(t *testing.T) {
	old := time.Now().Add(-25 * time.Hour).Unix()
	initData := signInitData(testBotToken, map[string]string{
		"auth_date": fmt.Sprintf("%d", old),
		"user":      `{"id":12345}`,
	})

	if _, err := ValidateInitData(initData, testBotToken); err == nil {
		t.Error("Expected error for expired auth_date")
	}
}

func TestExtractUserID(t *testing.T) {
	userID, err := extractUserID(`{"id":987654321,"first_name":"Aziza","username":"aziza"}`)
	if err != nil {
		t.Fatalf("extractUserID failed: %v", err)
	}
	if userID != 987654321 {
		t.Errorf("Expected 987654321, got %d", userID)
	}

	if _, err := extractUserID(`{"first_name":"NoID"}`); err == nil {
		t.Error("Expected error for JSON without id")
	}
}

func TestMiddlewareMissingHeader(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/payments/balance", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestMiddlewareExemptPaths(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Telegram calls the webhook itself and cannot send initData
	for _, path := range []string{"/payments/webhook", "/ping"} {
		req := httptest.NewRequest("POST", path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("Expected %s to bypass auth, got %d", path, rr.Code)
		}
	}
}

func TestMiddlewareValidInitData(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", testBotToken)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	initData := signInitData(testBotToken, map[string]string{
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
		"user":      `{"id":12345}`,
	})
	req := httptest.NewRequest("GET", "/payments/balance", nil)
	req.Header.Set("X-Telegram-Init-Data", initData)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
}
