package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds runtime settings read from app.env and the environment
type Config struct {
	AppEnv              string        `mapstructure:"APP_ENV"`
	ServerAddress       string        `mapstructure:"SERVER_ADDRESS"`
	Store               string        `mapstructure:"STORE"`
	DatabaseURL         string        `mapstructure:"DATABASE_URL"`
	RedisAddr           string        `mapstructure:"REDIS_ADDR"`
	AMQPURL             string        `mapstructure:"AMQP_URL"`
	JWTSecret           string        `mapstructure:"JWT_SECRET"`
	StripeSecretKey     string        `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string        `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	Currency            string        `mapstructure:"CURRENCY"`
	PlatformFeePercent  string        `mapstructure:"PLATFORM_FEE_PERCENT"`
	SchedulerInterval   time.Duration `mapstructure:"SCHEDULER_INTERVAL"`
	SchedulerBatchSize  int           `mapstructure:"SCHEDULER_BATCH_SIZE"`
	RelayInterval       time.Duration `mapstructure:"RELAY_INTERVAL"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`
	ShutdownTimeout     time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

var defaults = map[string]any{
	"APP_ENV":               "development",
	"SERVER_ADDRESS":        ":8080",
	"STORE":                 StoreMemory,
	"DATABASE_URL":          "",
	"REDIS_ADDR":            "",
	"AMQP_URL":              "",
	"JWT_SECRET":            "dev-secret",
	"STRIPE_SECRET_KEY":     "",
	"STRIPE_WEBHOOK_SECRET": "",
	"CURRENCY":              "usd",
	"PLATFORM_FEE_PERCENT":  "5",
	"SCHEDULER_INTERVAL":    "60s",
	"SCHEDULER_BATCH_SIZE":  100,
	"RELAY_INTERVAL":        "5s",
	"LOG_LEVEL":             "info",
	"SHUTDOWN_TIMEOUT":      "10s",
}

// LoadConfig reads app.env from path when present; environment variables win.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	if c.SchedulerInterval <= 0 {
		return errors.New("SCHEDULER_INTERVAL must be positive")
	}
	if c.RelayInterval <= 0 {
		return errors.New("RELAY_INTERVAL must be positive")
	}
	if c.SchedulerBatchSize <= 0 {
		return errors.New("SCHEDULER_BATCH_SIZE must be positive")
	}
	fee, err := c.FeePercent()
	if err != nil {
		return err
	}
	if fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("PLATFORM_FEE_PERCENT must be between 0 and 100, got %s", fee)
	}
	return nil
}

// FeePercent parses PLATFORM_FEE_PERCENT
func (c Config) FeePercent() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(strings.TrimSpace(c.PlatformFeePercent))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid PLATFORM_FEE_PERCENT %q: %w", c.PlatformFeePercent, err)
	}
	return fee, nil
}

// IsProduction reports whether internal error details must be hidden
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
