package config

import (
	"fmt"
	"time"
)

type WebhookConfig struct {
	Timeout          time.Duration `yaml:"timeout"`
	MaxAttempts      int           `yaml:"max_attempts"`
	InitialBackoff   time.Duration `yaml:"initial_backoff"`
	MaxBackoff       time.Duration `yaml:"max_backoff"`
	Workers          int           `yaml:"workers"`
	QueueSize        int           `yaml:"queue_size"`
	SignatureHeader  string        `yaml:"signature_header"`
	EventIDHeader    string        `yaml:"event_id_header"`
	RecoveryInterval time.Duration `yaml:"recovery_interval"`
	StaleAfter       time.Duration `yaml:"stale_after"`
}

func (c *WebhookConfig) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.QueueSize == 0 {
		c.QueueSize = 256
	}
	if c.SignatureHeader == "" {
		c.SignatureHeader = "X-Ledger-Signature"
	}
	if c.EventIDHeader == "" {
		c.EventIDHeader = "X-Ledger-Event-Id"
	}
	if c.RecoveryInterval == 0 {
		c.RecoveryInterval = time.Minute
	}
	if c.StaleAfter == 0 {
		c.StaleAfter = 2 * time.Minute
	}
}

// Validate checks that an event in delivery is never taken for stale. The claim
// is refreshed before every attempt, so StaleAfter must outlast one attempt
// plus the longest backoff before it.
func (c WebhookConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if longest := c.Timeout + c.MaxBackoff; c.StaleAfter <= longest {
		return fmt.Errorf("stale_after %s must exceed timeout + max_backoff (%s)", c.StaleAfter, longest)
	}
	return nil
}

type SettlementConfig struct {
	Enabled  bool          `yaml:"enabled"`
	RunAt    string        `yaml:"run_at"`
	Timezone string        `yaml:"timezone"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

func (c *SettlementConfig) applyDefaults() {
	if c.RunAt == "" {
		c.RunAt = "23:59"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Kolkata"
	}
	if c.LockTTL == 0 {
		c.LockTTL = 30 * time.Minute
	}
}

// DailySchedule is a wall-clock time in a fixed location.
type DailySchedule struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// Schedule parses RunAt ("HH:MM") in Timezone.
func (c SettlementConfig) Schedule() (DailySchedule, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return DailySchedule{}, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	t, err := time.Parse("15:04", c.RunAt)
	if err != nil {
		return DailySchedule{}, fmt.Errorf("run_at must be HH:MM: %w", err)
	}
	return DailySchedule{Hour: t.Hour(), Minute: t.Minute(), Location: loc}, nil
}
