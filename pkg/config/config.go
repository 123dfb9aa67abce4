// Package config reads configuration overrides from the environment.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Env resolves dotted config keys (database.password) against environment
// variables (PREFIX_DATABASE_PASSWORD).
type Env interface {
	IsSet(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
}

type viperEnv struct {
	v *viper.Viper
}

// NewEnv returns an Env bound to variables starting with prefix.
func NewEnv(prefix string) Env {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(prefix))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &viperEnv{v: v}
}

func (e *viperEnv) IsSet(key string) bool {
	return e.v.IsSet(key)
}

func (e *viperEnv) GetString(key string) string {
	return e.v.GetString(key)
}

func (e *viperEnv) GetInt(key string) int {
	return e.v.GetInt(key)
}

func (e *viperEnv) GetBool(key string) bool {
	return e.v.GetBool(key)
}

func (e *viperEnv) GetDuration(key string) time.Duration {
	return e.v.GetDuration(key)
}

// GetStringSlice splits comma separated values.
func (e *viperEnv) GetStringSlice(key string) []string {
	raw := e.v.GetString(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
