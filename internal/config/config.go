package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port            int
	AppName         string
	CORSAllowOrigin string

	// Secrets (from .env)
	JWTSecret  string
	WebhookURL string

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Auth
	TokenTTLHours int

	// Risk Management
	MaxDailyTrades     int
	MaxCapitalPerTrade float64

	// Timing
	ReconcileIntervalMinutes int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Server
		Port:            envInt("PORT", 5000),
		AppName:         envStr("APP_NAME", "TradeLog"),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		// Secrets
		JWTSecret:  envStr("JWT_SECRET", ""),
		WebhookURL: envStr("WEBHOOK_URL", ""),

		// Database
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "tradelog"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		// Auth
		TokenTTLHours: envInt("TOKEN_TTL_HOURS", 24),

		// Risk Management
		MaxDailyTrades:     envInt("MAX_DAILY_TRADES", 0),
		MaxCapitalPerTrade: envFloat("MAX_CAPITAL_PER_TRADE", 0),

		// Timing
		ReconcileIntervalMinutes: envInt("RECONCILE_INTERVAL_MINUTES", 60),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}
	if c.DBUser == "" {
		errs = append(errs, "DB_USER is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, "PORT must be between 1 and 65535")
	}
	if c.WebhookURL == "" {
		fmt.Println("[WARN] WEBHOOK_URL not set — trade notifications disabled")
	}
	if c.MaxDailyTrades == 0 && c.MaxCapitalPerTrade == 0 {
		fmt.Println("[WARN] MAX_DAILY_TRADES and MAX_CAPITAL_PER_TRADE are both 0 — no per-trade limits active")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Trade Journal Backend Configuration ===")
	fmt.Printf("App Name: %s\n", c.AppName)
	fmt.Printf("Port: %d\n", c.Port)
	fmt.Printf("Database: %s@%s:%d/%s\n", c.DBUser, c.DBHost, c.DBPort, c.DBName)
	fmt.Println("--------------------------------------")
	fmt.Println("Risk Limits:")
	fmt.Printf("  Max Daily Trades: %s\n", limitLabel(float64(c.MaxDailyTrades), "%d trades", c.MaxDailyTrades))
	fmt.Printf("  Max Capital/Trade: %s\n", limitLabel(c.MaxCapitalPerTrade, "₹%.2f", c.MaxCapitalPerTrade))
	fmt.Println("--------------------------------------")
	fmt.Printf("Token TTL: %d hours\n", c.TokenTTLHours)
	fmt.Printf("Reconcile Interval: every %d minutes\n", c.ReconcileIntervalMinutes)
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func limitLabel(value float64, format string, arg any) string {
	if value <= 0 {
		return "disabled"
	}
	return fmt.Sprintf(format, arg)
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
