package config

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/cmusatyalab/OpenWorkflow/internal/logging"
	"github.com/cmusatyalab/OpenWorkflow/pkg/persistence/middleware"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config holds the settings shared by the server commands.
// Every field can be set from the environment; cobra flags override it.
type Config struct {
	Addr          string        `env:"OPENWORKFLOW_ADDR"           envDefault:":8080"`
	Store         string        `env:"OPENWORKFLOW_STORE"          envDefault:"memory"`
	DataDir       string        `env:"OPENWORKFLOW_DATA_DIR"       envDefault:".openworkflow/documents"`
	RedisAddr     string        `env:"OPENWORKFLOW_REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string        `env:"OPENWORKFLOW_REDIS_PASSWORD"`
	RedisDB       int           `env:"OPENWORKFLOW_REDIS_DB"       envDefault:"0"`
	RedisPrefix   string        `env:"OPENWORKFLOW_REDIS_PREFIX"   envDefault:"openworkflow:"`
	RedisTTL      time.Duration `env:"OPENWORKFLOW_REDIS_TTL"`
	LockTTL       time.Duration `env:"OPENWORKFLOW_LOCK_TTL"       envDefault:"30s"`
	LogLevel      string        `env:"OPENWORKFLOW_LOG_LEVEL"      envDefault:"info"`
	LogFormat     string        `env:"OPENWORKFLOW_LOG_FORMAT"     envDefault:"text"`
	ZooFile       string        `env:"OPENWORKFLOW_ZOO"`
	HistoryLimit  int           `env:"OPENWORKFLOW_HISTORY_LIMIT"  envDefault:"50"`

	// EncryptionKey is a base64 AES-256 key; documents are encrypted at rest when set.
	EncryptionKey            string   `env:"OPENWORKFLOW_ENCRYPTION_KEY"`
	EncryptionFallbackKeys   []string `env:"OPENWORKFLOW_ENCRYPTION_FALLBACK_KEYS" envSeparator:","`
	EncryptionAllowPlaintext bool     `env:"OPENWORKFLOW_ENCRYPTION_ALLOW_PLAINTEXT"`
	// RedactArgs lists regular expressions; matching callable argument
	// keys are masked before documents are stored.
	RedactArgs []string `env:"OPENWORKFLOW_REDACT_ARGS" envSeparator:","`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom reads the configuration from the given variables instead of the
// process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings that env cannot.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q (want %s, %s or %s)", c.Store, StoreMemory, StoreFile, StoreRedis)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	if _, err := c.encryptionConfig(); err != nil {
		return err
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history limit must not be negative, got %d", c.HistoryLimit)
	}
	return nil
}

// Level parses LogLevel (debug, info, warn, error).
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// encryptionConfig decodes the keys. It returns nil when encryption is off.
func (c Config) encryptionConfig() (*middleware.EncryptionConfig, error) {
	if c.EncryptionKey == "" {
		if len(c.EncryptionFallbackKeys) > 0 {
			return nil, fmt.Errorf("fallback encryption keys need an active key")
		}
		return nil, nil
	}
	active, err := decodeKey(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	cfg := &middleware.EncryptionConfig{ActiveKey: active, AllowPlaintext: c.EncryptionAllowPlaintext}
	for i, k := range c.EncryptionFallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("fallback encryption key %d: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	return cfg, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(key) != middleware.KeySize {
		return nil, fmt.Errorf("want %d bytes, got %d", middleware.KeySize, len(key))
	}
	return key, nil
}
