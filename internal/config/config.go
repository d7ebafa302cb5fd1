package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0; authentication is enabled when both are set
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// S3 Storage for receipts and backups
	S3 S3Config

	// AMQP notification publishing
	AMQP AMQPConfig

	// Reminder worker
	ReminderInterval time.Duration
	ReminderLeadDays int

	// NearLimitRatio is the spent/limit ratio at which a limit counts as near
	NearLimitRatio float64

	// Rate limiting
	RateLimitPerMinute int
	RateLimitBurst     int

	// SeedDefaults creates the default categories and income types on startup
	SeedDefaults bool
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// Enabled reports whether object storage is configured
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// AMQPConfig holds the broker settings for notification messages
type AMQPConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// Enabled reports whether notifications are published to a broker
func (c AMQPConfig) Enabled() bool {
	return c.URL != ""
}

// AuthEnabled reports whether requests must carry a valid Auth0 token
func (c *Config) AuthEnabled() bool {
	return c.Auth0Domain != "" && c.Auth0Audience != ""
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var errs []string
	parseErr := func(key string, err error) {
		errs = append(errs, fmt.Sprintf("%s: %v", key, err))
	}

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Auth0Domain:   getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience: getEnv("AUTH0_AUDIENCE", ""),
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		Env:           getEnv("ENV", "development"),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "ledgerly"),
			Queue:    getEnv("AMQP_QUEUE", "ledgerly.notifications"),
		},
	}

	var err error
	if cfg.ReminderInterval, err = getDuration("REMINDER_INTERVAL", time.Hour); err != nil {
		parseErr("REMINDER_INTERVAL", err)
	}
	if cfg.ReminderLeadDays, err = getInt("REMINDER_LEAD_DAYS", 3); err != nil {
		parseErr("REMINDER_LEAD_DAYS", err)
	}
	if cfg.NearLimitRatio, err = getFloat("NEAR_LIMIT_RATIO", 0.8); err != nil {
		parseErr("NEAR_LIMIT_RATIO", err)
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		parseErr("RATE_LIMIT_PER_MINUTE", err)
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 10); err != nil {
		parseErr("RATE_LIMIT_BURST", err)
	}
	if cfg.SeedDefaults, err = getBool("SEED_DEFAULTS", true); err != nil {
		parseErr("SEED_DEFAULTS", err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if (c.Auth0Domain == "") != (c.Auth0Audience == "") {
		return fmt.Errorf("AUTH0_DOMAIN and AUTH0_AUDIENCE must be set together")
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive")
	}
	if c.ReminderLeadDays < 0 {
		return fmt.Errorf("REMINDER_LEAD_DAYS must not be negative")
	}
	if c.NearLimitRatio <= 0 || c.NearLimitRatio >= 1 {
		return fmt.Errorf("NEAR_LIMIT_RATIO must be between 0 and 1")
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseFloat(value, 64)
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseBool(value)
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(value)
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
