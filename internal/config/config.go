package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port              int    `env:"PORT" envDefault:"8080"`
	DatabaseURL       string `env:"DATABASE_URL,required"`
	RedisURL          string `env:"REDIS_URL"`
	GoogleMapsAPIKey  string `env:"GOOGLE_MAPS_API_KEY,required"`
	BaseURL           string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	SessionTTLSeconds int    `env:"SESSION_TTL_SECONDS" envDefault:"86400"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ShareURL builds the link User A sends to User B.
func (c *Config) ShareURL(sessionID string) string {
	return fmt.Sprintf("%s/session/%s", strings.TrimRight(c.BaseURL, "/"), sessionID)
}

func (c *Config) Validate(isProduction bool) error {
	if c.SessionTTLSeconds <= 0 {
		return fmt.Errorf("SESSION_TTL_SECONDS must be positive")
	}

	if isProduction {
		if c.RedisURL == "" {
			log.Warn().Msg("REDIS_URL is empty in production: geocode results will not be cached")
		} else if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if strings.HasPrefix(c.BaseURL, "http://") {
			log.Warn().Msg("BASE_URL uses http:// in production: share links will not be served over TLS")
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
