package config

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapEnv map[string]string

func (e mapEnv) IsSet(key string) bool {
	_, ok := e[key]
	return ok
}

func (e mapEnv) GetString(key string) string { return e[key] }

func (e mapEnv) GetInt(key string) int {
	n, _ := strconv.Atoi(e[key])
	return n
}

func (e mapEnv) GetBool(key string) bool { return e[key] == "true" }

func (e mapEnv) GetDuration(key string) time.Duration {
	d, _ := time.ParseDuration(e[key])
	return d
}

func (e mapEnv) GetStringSlice(key string) []string { return strings.Split(e[key], ",") }

const minimal = `
service:
  name: wallet-ledger
database:
  host: localhost
  port: 5432
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimal), nil)
	require.NoError(t, err)

	assert.Equal(t, "INR", cfg.Service.DefaultCurrency)
	assert.Equal(t, "100000.00", cfg.Service.MaxTransferAmount)
	assert.Equal(t, "admin", cfg.JWT.AdminRole)
	assert.Equal(t, "none", cfg.Messaging.Driver)
	assert.Equal(t, 3, cfg.Webhook.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Webhook.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.Webhook.MaxBackoff)
	assert.Equal(t, "X-Ledger-Signature", cfg.Webhook.SignatureHeader)
	assert.Equal(t, "23:59", cfg.Settlement.RunAt)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Email.Enabled())

	limit, err := cfg.Service.MaxTransfer()
	require.NoError(t, err)
	assert.Equal(t, "100000", limit.String())
}

func TestParse_EnvOverrides(t *testing.T) {
	env := mapEnv{
		"database.password":  "s3cret",
		"database.port":      "6543",
		"jwt.secret":         "jwt-secret",
		"redis.host":         "redis",
		"messaging.driver":   "kafka",
		"messaging.brokers":  "k1:9092,k2:9092",
		"settlement.enabled": "true",
	}

	cfg, err := Parse([]byte(minimal), env)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "jwt-secret", cfg.JWT.Secret)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Messaging.Brokers)
	assert.True(t, cfg.Settlement.Enabled)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative transfer limit", "service:\n  max_transfer_amount: \"-1\"\n"},
		{"unknown driver", minimal + "messaging:\n  driver: nats\n"},
		{"kafka without brokers", minimal + "messaging:\n  driver: kafka\n"},
		{"redis bus without redis", minimal + "messaging:\n  driver: redis\n"},
		{"bad run_at", minimal + "settlement:\n  run_at: \"25:00\"\n"},
		{"bad timezone", minimal + "settlement:\n  timezone: Mars/Olympus\n"},
		{"stale window shorter than one attempt", minimal + "webhook:\n  timeout: 10s\n  max_backoff: 2m\n  stale_after: 2m\n"},
		{"negative attempts", minimal + "webhook:\n  max_attempts: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), nil)
			assert.Error(t, err)
		})
	}
}

func TestWebhookConfig_Validate(t *testing.T) {
	cfg := WebhookConfig{}
	cfg.applyDefaults()
	require.NoError(t, cfg.Validate())

	cfg.MaxAttempts = 10
	assert.NoError(t, cfg.Validate())

	cfg.StaleAfter = cfg.Timeout + cfg.MaxBackoff
	assert.Error(t, cfg.Validate())
}

func TestSettlementSchedule(t *testing.T) {
	cfg := SettlementConfig{RunAt: "02:30", Timezone: "UTC"}
	schedule, err := cfg.Schedule()
	require.NoError(t, err)
	assert.Equal(t, 2, schedule.Hour)
	assert.Equal(t, 30, schedule.Minute)
	assert.Equal(t, time.UTC, schedule.Location)
}
