package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat(string(b), 32)))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, ".flux/sessions", cfg.SessionDir)
	assert.Equal(t, "json", cfg.SessionFormat)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, 2*time.Second, cfg.EffectDelay)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 1000, cfg.HistoryLimit)
	assert.Equal(t, "default", cfg.DefaultSession)
	assert.Empty(t, cfg.MaskFields)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FLUX_BACKEND", " Redis ")
	t.Setenv("FLUX_REDIS_ADDR", "localhost:6379")
	t.Setenv("FLUX_SESSION_TTL", "1h")
	t.Setenv("FLUX_EFFECT_DELAY", "250ms")
	t.Setenv("FLUX_MASK_FIELDS", "password,token")
	t.Setenv("FLUX_ENCRYPTION_KEY", key('a'))
	t.Setenv("FLUX_ENCRYPTION_FALLBACK_KEYS", key('b'))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Backend)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.EffectDelay)
	assert.Equal(t, []string{"password", "token"}, cfg.MaskFields)

	active, fallback, err := cfg.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Len(t, fallback, 1)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad duration", map[string]string{"FLUX_EFFECT_DELAY": "soon"}, "parse env:"},
		{"bad int", map[string]string{"FLUX_REDIS_DB": "zero"}, "parse env:"},
		{"unknown backend", map[string]string{"FLUX_BACKEND": "etcd"}, "unknown backend"},
		{"redis without addr", map[string]string{"FLUX_BACKEND": "redis"}, "FLUX_REDIS_ADDR"},
		{"bad level", map[string]string{"FLUX_LOG_LEVEL": "loud"}, "loud"},
		{"bad key", map[string]string{"FLUX_ENCRYPTION_KEY": "short"}, "FLUX_ENCRYPTION_KEY"},
		{"orphan fallback", map[string]string{"FLUX_ENCRYPTION_FALLBACK_KEYS": key('b')}, "requires"},
		{"bad mask pattern", map[string]string{"FLUX_MASK_FIELDS": "pass("}, "FLUX_MASK_FIELDS"},
		{"bad format", map[string]string{"FLUX_SESSION_FORMAT": "toml"}, "FLUX_SESSION_FORMAT"},
		{"negative history", map[string]string{"FLUX_HISTORY_LIMIT": "-1"}, "FLUX_HISTORY_LIMIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLogger(t *testing.T) {
	cfg := Config{LogLevel: "error"}
	assert.NotNil(t, cfg.Logger(false))
	assert.NotNil(t, cfg.Logger(true))
}
