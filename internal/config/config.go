package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	TelegramToken     string
	CredentialsBase64 string
	SpreadsheetID     string
	CheckinRange      string
	AllowListRange    string
	DatabasePath      string
	SessionTTL        time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	creds := os.Getenv("GCP_CREDENTIALS_BASE64")
	if creds == "" {
		return nil, fmt.Errorf("GCP_CREDENTIALS_BASE64 is not set")
	}

	spreadsheetID := os.Getenv("SPREADSHEET_ID")
	if spreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID is not set")
	}

	checkinRange := os.Getenv("CHECKIN_RANGE")
	if checkinRange == "" {
		checkinRange = "Checkin!A:G"
	}

	allowListRange := os.Getenv("ALLOWLIST_RANGE")
	if allowListRange == "" {
		allowListRange = "Petugas!A:A"
	}

	ttl := 30 * time.Minute
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", raw, err)
		}
		ttl = parsed
	}

	return &Config{
		TelegramToken:     token,
		CredentialsBase64: creds,
		SpreadsheetID:     spreadsheetID,
		CheckinRange:      checkinRange,
		AllowListRange:    allowListRange,
		// Empty means sessions live in memory only.
		DatabasePath: os.Getenv("DATABASE_PATH"),
		SessionTTL:   ttl,
	}, nil
}
