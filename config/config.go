/*
Package config loads the recognized configuration options from the
environment.

RECOGNIZED OPTIONS:
  VIP_MIN, GOLD_MIN, SILVER_MIN  tier thresholds (points, integers)
  INACTIVE_DAYS                  inactivity cutoff for the INACTIVE segment
  CONVERSION_RATE                points earned per currency unit (default 0.1)
  CAMPAIGN_BATCH_SIZE            recipients per outbound batch
  CAMPAIGN_BATCH_PAUSE           pause between batches (Go duration)
  LOG_LEVEL                      debug|info|warn|error

Local .env files are overlaid onto the process environment so dev setups
need no shell exports. Threshold ordering is validated at load: a config
that inverts the tiers is a startup failure, not a runtime surprise.
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/minimart/backoffice/segment"
)

// Config carries every option the core consumes.
type Config struct {
	Tiers          segment.Tiers
	InactiveDays   int
	ConversionRate decimal.Decimal

	CampaignBatchSize  int
	CampaignBatchPause time.Duration
}

// LoadEnv overlays local env files onto the process environment.
func LoadEnv(logger *logrus.Logger) {
	for _, file := range []string{".env", ".env.dev"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil && logger != nil {
			logger.WithError(err).Warnf("Failed to load %s", file)
		}
	}
}

// Load reads and validates the configuration. A malformed value is a
// startup failure, never a silent fallback to the default.
func Load() (*Config, error) {
	cfg := &Config{}

	var err error
	if cfg.Tiers.SilverMin, err = getEnvInt("SILVER_MIN", 200); err != nil {
		return nil, err
	}
	if cfg.Tiers.GoldMin, err = getEnvInt("GOLD_MIN", 500); err != nil {
		return nil, err
	}
	if cfg.Tiers.VIPMin, err = getEnvInt("VIP_MIN", 1000); err != nil {
		return nil, err
	}
	if cfg.InactiveDays, err = getEnvInt("INACTIVE_DAYS", 90); err != nil {
		return nil, err
	}
	if cfg.CampaignBatchSize, err = getEnvInt("CAMPAIGN_BATCH_SIZE", 50); err != nil {
		return nil, err
	}

	if err := cfg.Tiers.Validate(); err != nil {
		return nil, err
	}
	if cfg.InactiveDays <= 0 {
		return nil, fmt.Errorf("INACTIVE_DAYS must be positive, got %d", cfg.InactiveDays)
	}

	rate, err := decimal.NewFromString(GetEnv("CONVERSION_RATE", "0.1"))
	if err != nil || !rate.IsPositive() {
		return nil, fmt.Errorf("CONVERSION_RATE must be a positive decimal, got %q", GetEnv("CONVERSION_RATE", "0.1"))
	}
	cfg.ConversionRate = rate

	pause, err := time.ParseDuration(GetEnv("CAMPAIGN_BATCH_PAUSE", "1s"))
	if err != nil {
		return nil, fmt.Errorf("CAMPAIGN_BATCH_PAUSE: %w", err)
	}
	cfg.CampaignBatchPause = pause

	return cfg, nil
}

// GetEnv gets an environment variable with a default value.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value.
// An unset variable gets the default; a set but malformed one errors.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return parsed, nil
}

// GetLogLevel gets the log level from environment.
func GetLogLevel() logrus.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
