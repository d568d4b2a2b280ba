package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL string
	HTTPAddr    string
	LogLevel    string
	Environment string

	WebhookURL         string
	DeliveryTimeout    time.Duration // per delivery attempt
	DeliveryMaxRetries int           // in-call retries after the initial attempt
	BackoffBaseDelay   time.Duration // doubled per attempt

	ScanCronSpec         string // periodic birthday scan, default every minute
	TargetHour           int    // local hour at which birthdays fire
	RetryMaxAttempts     int    // cap on ledger-level retry count
	RetryRecencyDays     int    // failed records older than this are abandoned
	RecoveryLookbackDays int    // days scanned at startup for missed birthdays
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.WebhookURL = os.Getenv("WEBHOOK_URL")
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("WEBHOOK_URL is not set")
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":3000"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.ScanCronSpec = os.Getenv("SCAN_CRON_SPEC")
	if cfg.ScanCronSpec == "" {
		cfg.ScanCronSpec = "* * * * *" // every minute
	}

	if cfg.DeliveryTimeout, err = durationEnv("DELIVERY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.BackoffBaseDelay, err = durationEnv("BACKOFF_BASE_DELAY", 1*time.Second); err != nil {
		return nil, err
	}

	if cfg.DeliveryMaxRetries, err = intEnv("DELIVERY_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.TargetHour, err = intEnv("TARGET_HOUR", 9); err != nil {
		return nil, err
	}
	if cfg.TargetHour < 0 || cfg.TargetHour > 23 {
		return nil, fmt.Errorf("TARGET_HOUR must be in [0,23], got %d", cfg.TargetHour)
	}
	if cfg.RetryMaxAttempts, err = intEnv("RETRY_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.RetryRecencyDays, err = intEnv("RETRY_RECENCY_DAYS", 1); err != nil {
		return nil, err
	}
	if cfg.RecoveryLookbackDays, err = intEnv("RECOVERY_LOOKBACK_DAYS", 7); err != nil {
		return nil, err
	}

	return cfg, nil
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}
