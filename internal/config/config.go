// Package config loads process configuration from FLUX_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/aretw0/flux/internal/logging"
	"github.com/aretw0/flux/pkg/adapters/file"
	"github.com/aretw0/flux/pkg/persistence/middleware"
)

// Snapshot store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is read once at startup. Command flags override it.
type Config struct {
	LogLevel string `env:"FLUX_LOG_LEVEL" envDefault:"info"`

	Backend       string        `env:"FLUX_BACKEND"        envDefault:"file"`
	SessionDir    string        `env:"FLUX_SESSION_DIR"    envDefault:".flux/sessions"`
	SessionFormat string        `env:"FLUX_SESSION_FORMAT" envDefault:"json"`
	RedisAddr     string        `env:"FLUX_REDIS_ADDR"`
	RedisPassword string        `env:"FLUX_REDIS_PASSWORD"`
	RedisDB       int           `env:"FLUX_REDIS_DB"       envDefault:"0"`
	SessionTTL    time.Duration `env:"FLUX_SESSION_TTL"`
	LockTTL       time.Duration `env:"FLUX_LOCK_TTL"       envDefault:"30s"`

	// EncryptionKey is a base64 32-byte AES key. Empty disables encryption.
	EncryptionKey string   `env:"FLUX_ENCRYPTION_KEY"`
	FallbackKeys  []string `env:"FLUX_ENCRYPTION_FALLBACK_KEYS" envSeparator:","`
	// MaskFields are regular expressions matched against JSON field names.
	MaskFields     []string `env:"FLUX_MASK_FIELDS"              envSeparator:","`
	HistoryLimit   int      `env:"FLUX_HISTORY_LIMIT"            envDefault:"1000"`
	MaxInputSize   int      `env:"FLUX_MAX_INPUT_SIZE"           envDefault:"4096"`
	DefaultSession string   `env:"FLUX_SESSION"                  envDefault:"default"`

	HTTPAddr    string        `env:"FLUX_HTTP_ADDR"    envDefault:":8080"`
	EffectDelay time.Duration `env:"FLUX_EFFECT_DELAY" envDefault:"2s"`
}

// Load parses the environment into a validated Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("FLUX_REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want memory, file or redis)", c.Backend)
	}
	if _, err := file.ParseFormat(c.SessionFormat); err != nil {
		return fmt.Errorf("FLUX_SESSION_FORMAT: %w", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for _, field := range c.MaskFields {
		if _, err := regexp.Compile(field); err != nil {
			return fmt.Errorf("FLUX_MASK_FIELDS: %w", err)
		}
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("FLUX_HISTORY_LIMIT must not be negative")
	}
	if _, _, err := c.Keys(); err != nil {
		return err
	}
	return nil
}

// Keys decodes the active and fallback encryption keys. A nil active key means
// encryption is off.
func (c Config) Keys() (active []byte, fallback [][]byte, err error) {
	if c.EncryptionKey == "" {
		if len(c.FallbackKeys) > 0 {
			return nil, nil, fmt.Errorf("FLUX_ENCRYPTION_FALLBACK_KEYS requires FLUX_ENCRYPTION_KEY")
		}
		return nil, nil, nil
	}
	active, err = middleware.ParseKey(c.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("FLUX_ENCRYPTION_KEY: %w", err)
	}
	for i, raw := range c.FallbackKeys {
		key, err := middleware.ParseKey(strings.TrimSpace(raw))
		if err != nil {
			return nil, nil, fmt.Errorf("FLUX_ENCRYPTION_FALLBACK_KEYS[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

// Logger builds the process logger. debug forces the debug level.
func (c Config) Logger(debug bool) *slog.Logger {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.New(level)
}
