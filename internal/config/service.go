package config

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type ServiceConfig struct {
	Name              string `yaml:"name"`
	Environment       string `yaml:"environment"`
	Version           string `yaml:"version"`
	FrontendURL       string `yaml:"frontend_url"`
	DefaultCurrency   string `yaml:"default_currency"`
	MaxTransferAmount string `yaml:"max_transfer_amount"`
	// EncryptionKey is a 64 hex char AES-256 key used for webhook secrets at rest.
	EncryptionKey string `yaml:"encryption_key"`
}

// MaxTransfer returns the per-transfer limit as a decimal.
func (c ServiceConfig) MaxTransfer() (decimal.Decimal, error) {
	limit, err := decimal.NewFromString(c.MaxTransferAmount)
	if err != nil {
		return decimal.Zero, err
	}
	if !limit.IsPositive() {
		return decimal.Zero, fmt.Errorf("must be positive, got %s", limit)
	}
	return limit, nil
}

// IsProduction reports whether the service runs in production.
func (c ServiceConfig) IsProduction() bool {
	return c.Environment == "production"
}

type JWTConfig struct {
	Secret    string `yaml:"secret"`
	AdminRole string `yaml:"admin_role"`
}

// RedisConfig configures the shared Redis client. An empty Host disables
// idempotency caching and the settlement run lock.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MessagingConfig selects the event bus: none, redis or kafka.
type MessagingConfig struct {
	Driver  string   `yaml:"driver"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Channel string   `yaml:"channel"`
}

// EmailConfig configures SMTP notifications. An empty Host disables email.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
}

func (c EmailConfig) Enabled() bool {
	return c.Host != ""
}
