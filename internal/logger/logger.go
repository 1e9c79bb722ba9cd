package logger

import (
	"log"
	"time"
)

// Debug logs a debug message with consistent format
// Format: [DEBUG] timestamp=... user_id=... action=... details=...
func Debug(userID, action, details string) {
	timestamp := time.Now().Format(time.RFC3339)
	log.Printf("[DEBUG] timestamp=%s user_id=%s action=%s details=%s", timestamp, userID, action, details)
}

// Error logs an error in the same key=value format
func Error(userID, action, details string) {
	timestamp := time.Now().Format(time.RFC3339)
	log.Printf("[ERROR] timestamp=%s user_id=%s action=%s details=%s", timestamp, userID, action, details)
}
