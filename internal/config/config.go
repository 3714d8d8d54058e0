package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

type Config struct {
	Port                 int    `env:"PORT" envDefault:"8080"`
	DatabaseURL          string `env:"DATABASE_URL,required"`
	RedisURL             string `env:"REDIS_URL"`
	SessionBackend       string `env:"SESSION_BACKEND" envDefault:"redis"`
	AdminPassword        string `env:"ADMIN_PASSWORD"`
	AdminPasswordHash    string `env:"ADMIN_PASSWORD_HASH"`
	SessionTTLSeconds    int    `env:"SESSION_TTL_SECONDS" envDefault:"86400"`
	PublicBaseURL        string `env:"PUBLIC_BASE_URL" envDefault:""`
	MessageRetentionDays int    `env:"MESSAGE_RETENTION_DAYS" envDefault:"0"`
	LogLevel             string `env:"LOG_LEVEL" envDefault:"info"`
	StaticDir            string `env:"STATIC_DIR" envDefault:"static"`
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func (c *Config) MessageRetention() time.Duration {
	return time.Duration(c.MessageRetentionDays) * 24 * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	switch c.SessionBackend {
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	case SessionBackendMemory:
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q", SessionBackendRedis, SessionBackendMemory)
	}

	if c.AdminPasswordHash != "" {
		if !strings.HasPrefix(c.AdminPasswordHash, "$2a$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2b$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2y$") {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash (generate with: go run scripts/hash-password.go <password>)")
		}
	}

	if c.AdminPasswordHash == "" && c.AdminPassword == "" {
		return fmt.Errorf("one of ADMIN_PASSWORD_HASH or ADMIN_PASSWORD must be set")
	}

	if c.SessionTTLSeconds <= 0 {
		return fmt.Errorf("SESSION_TTL_SECONDS must be positive")
	}

	if isProduction {
		if c.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD_HASH is required in production; plain ADMIN_PASSWORD is for local development only")
		}
		if c.SessionBackend == SessionBackendMemory {
			log.Warn().Msg("SESSION_BACKEND=memory in production: sessions are lost on restart")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.PublicBaseURL == "" {
			log.Warn().Msg("PUBLIC_BASE_URL is empty in production: QR codes will encode relative URLs")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
