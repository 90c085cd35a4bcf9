package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config covers the focusd server.
type Config struct {
	Port                string
	DBPath              string
	JWTSecret           string
	TokenTTL            time.Duration
	CORSOrigins         []string
	MigrationsDir       string
	WatchTimeout        time.Duration
	BillingCheckoutURL  string
	BillingPortalURL    string
	BillingWebhookToken string
}

func Load() Config {
	return Config{
		Port:                getEnv("PORT", "8080"),
		DBPath:              getEnv("DB_PATH", "./data/focustimer.db"),
		JWTSecret:           getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:            time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:         getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir:       getEnv("MIGRATIONS_DIR", "./migrations"),
		WatchTimeout:        time.Duration(getEnvInt("WATCH_TIMEOUT_SECONDS", 25)) * time.Second,
		BillingCheckoutURL:  getEnv("BILLING_CHECKOUT_URL", "https://billing.example.com/checkout"),
		BillingPortalURL:    getEnv("BILLING_PORTAL_URL", "https://billing.example.com/portal"),
		BillingWebhookToken: getEnv("BILLING_WEBHOOK_SECRET", ""),
	}
}

// ClientConfig covers the focus CLI.
type ClientConfig struct {
	ServerURL string
	DataDir   string
	Token     string
}

func LoadClient() ClientConfig {
	return ClientConfig{
		ServerURL: getEnv("FOCUS_SERVER_URL", "http://localhost:8080"),
		DataDir:   getEnv("FOCUS_DATA_DIR", defaultDataDir()),
		Token:     getEnv("FOCUS_TOKEN", ""),
	}
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "./focus-data"
	}
	return filepath.Join(base, "focustimer")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
