// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// AdminAPIKey guards the manual expiry-sweep trigger. Empty leaves
	// the endpoint open (the periodic worker runs regardless).
	AdminAPIKey string `yaml:"admin_api_key"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	PriceID       string `yaml:"price_id"`
	Currency      string `yaml:"currency"`
	Amount        int64  `yaml:"amount"` // base price in minor units
	WebhookSecret string `yaml:"webhook_secret"`
	// AllowUnverifiedWebhooks disables signature verification. Only
	// honored together with -dev; production startup fails without a
	// webhook secret.
	AllowUnverifiedWebhooks bool   `yaml:"allow_unverified_webhooks"`
	SuccessURL              string `yaml:"success_url"`
	CancelURL               string `yaml:"cancel_url"`
}

type PaymentConfig struct {
	Stripe StripeConfig `yaml:"stripe"`
}

type SweeperConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type RateLimitConfig struct {
	CodeAttempts int           `yaml:"code_attempts"` // per client per window
	Window       time.Duration `yaml:"window"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Payment   PaymentConfig   `yaml:"payment"`
	Sweeper   SweeperConfig   `yaml:"sweeper"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Payment.Stripe.Currency == "" {
		cfg.Payment.Stripe.Currency = "eur"
	}
	if cfg.Payment.Stripe.Amount <= 0 {
		cfg.Payment.Stripe.Amount = 500
	}
	if cfg.Sweeper.Interval <= 0 {
		cfg.Sweeper.Interval = time.Hour
	}
	if cfg.RateLimit.CodeAttempts <= 0 {
		cfg.RateLimit.CodeAttempts = 10
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Payment.Stripe.SecretKey == "" {
		return nil, errors.New("payment.stripe.secret_key is required")
	}
	if cfg.Payment.Stripe.PriceID == "" {
		return nil, errors.New("payment.stripe.price_id is required")
	}
	if cfg.Payment.Stripe.WebhookSecret == "" {
		// Never an implicit fallback: skipping verification must be
		// asked for by name, and only a dev process may do it.
		if !cfg.Payment.Stripe.AllowUnverifiedWebhooks || !dev {
			return nil, errors.New("payment.stripe.webhook_secret is required (or set allow_unverified_webhooks with -dev)")
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
