// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/StoreRatingsGo/pkg/config"
	"github.com/utafrali/StoreRatingsGo/pkg/database"
	"github.com/utafrali/StoreRatingsGo/pkg/tracing"
)

// Config holds all service settings.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`

	// CORSOrigins lists allowed origins; "*" allows all.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	JWTSecret  string        `env:"JWT_SECRET" envDefault:""`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"storeratings.events"`

	Postgres database.PostgresConfig
	Redis    database.RedisConfig
	Tracing  tracing.Config
}

const minJWTSecretLength = 32

// devJWTSecret is only ever used when ENVIRONMENT=development and no secret
// is configured.
const devJWTSecret = "development-only-insecure-secret"

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.JWTSecret == "" {
		if cfg.Environment != "development" {
			return nil, fmt.Errorf("JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = devJWTSecret
	}
	if cfg.Environment != "development" && len(cfg.JWTSecret) < minJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
