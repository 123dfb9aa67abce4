package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	pkgconfig "github.com/wekeepgrowing/wallet-ledger/pkg/config"
	"github.com/wekeepgrowing/wallet-ledger/pkg/logger"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables that override the config file.
const EnvPrefix = "LEDGER"

type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Log        logger.Config    `yaml:"log"`
	JWT        JWTConfig        `yaml:"jwt"`
	Redis      RedisConfig      `yaml:"redis"`
	Messaging  MessagingConfig  `yaml:"messaging"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Settlement SettlementConfig `yaml:"settlement"`
	Email      EmailConfig      `yaml:"email"`
}

func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/ledger.yaml"
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data, pkgconfig.NewEnv(EnvPrefix))
}

// Parse decodes YAML, applies defaults and then environment overrides.
func Parse(data []byte, env pkgconfig.Env) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if env != nil {
		cfg.applyEnv(env)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "wallet-ledger"
	}
	if c.Service.DefaultCurrency == "" {
		c.Service.DefaultCurrency = "INR"
	}
	if c.Service.MaxTransferAmount == "" {
		c.Service.MaxTransferAmount = "100000.00"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.JWT.AdminRole == "" {
		c.JWT.AdminRole = "admin"
	}
	if c.Messaging.Driver == "" {
		c.Messaging.Driver = "none"
	}
	if c.Messaging.Channel == "" {
		c.Messaging.Channel = "ledger.events"
	}
	if c.Messaging.Topic == "" {
		c.Messaging.Topic = "ledger.events"
	}
	c.Webhook.applyDefaults()
	c.Settlement.applyDefaults()
}

// applyEnv overlays secrets and deployment specific values from the environment.
func (c *Config) applyEnv(env pkgconfig.Env) {
	str := func(key string, dst *string) {
		if env.IsSet(key) {
			*dst = env.GetString(key)
		}
	}
	integer := func(key string, dst *int) {
		if env.IsSet(key) {
			*dst = env.GetInt(key)
		}
	}

	str("service.environment", &c.Service.Environment)
	str("service.frontend_url", &c.Service.FrontendURL)
	str("service.encryption_key", &c.Service.EncryptionKey)
	str("database.host", &c.Database.Host)
	integer("database.port", &c.Database.Port)
	str("database.name", &c.Database.Name)
	str("database.user", &c.Database.User)
	str("database.password", &c.Database.Password)
	str("jwt.secret", &c.JWT.Secret)
	str("redis.host", &c.Redis.Host)
	str("redis.password", &c.Redis.Password)
	str("email.password", &c.Email.Password)
	str("messaging.driver", &c.Messaging.Driver)
	if env.IsSet("messaging.brokers") {
		c.Messaging.Brokers = env.GetStringSlice("messaging.brokers")
	}
	if env.IsSet("settlement.enabled") {
		c.Settlement.Enabled = env.GetBool("settlement.enabled")
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if _, err := c.Service.MaxTransfer(); err != nil {
		return fmt.Errorf("invalid service.max_transfer_amount: %w", err)
	}
	if _, err := c.Settlement.Schedule(); err != nil {
		return fmt.Errorf("invalid settlement schedule: %w", err)
	}
	switch c.Messaging.Driver {
	case "none", "redis", "kafka":
	default:
		return fmt.Errorf("unknown messaging.driver %q", c.Messaging.Driver)
	}
	if c.Messaging.Driver == "kafka" && len(c.Messaging.Brokers) == 0 {
		return fmt.Errorf("messaging.brokers is required for the kafka driver")
	}
	if c.Messaging.Driver == "redis" && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required for the redis messaging driver")
	}
	if err := c.Webhook.Validate(); err != nil {
		return fmt.Errorf("invalid webhook config: %w", err)
	}
	return nil
}
