package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"REPORTD_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"REPORTD_DB_MAX_CONNS" default:"8"`

	HTTPHost string `envconfig:"REPORTD_HTTP_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"REPORTD_HTTP_PORT" default:"8845"`

	ClassifierEndpoint string        `envconfig:"CLASSIFIER_ENDPOINT" default:""`
	ClassifierModel    string        `envconfig:"CLASSIFIER_MODEL" default:""`
	ClassifierAPIKey   string        `envconfig:"CLASSIFIER_API_KEY" default:""`
	ClassifierTimeout  time.Duration `envconfig:"CLASSIFIER_TIMEOUT" default:"120s"`
	ClassifierRPS      float64       `envconfig:"CLASSIFIER_RPS" default:"1"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("REPORTD_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("REPORTD_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("REPORTD_DB_MIN_CONNS (%d) cannot exceed REPORTD_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.ClassifierTimeout <= 0 {
		return fmt.Errorf("CLASSIFIER_TIMEOUT must be positive")
	}
	if c.ClassifierRPS <= 0 {
		return fmt.Errorf("CLASSIFIER_RPS must be positive")
	}
	return nil
}

// ClassifierConfigured reports whether the grouping endpoint is usable.
// Endpoint and model are both required; the API key is optional for local
// OpenAI-compatible servers.
func (c *Config) ClassifierConfigured() bool {
	if c == nil {
		return false
	}
	return strings.TrimSpace(c.ClassifierEndpoint) != "" && strings.TrimSpace(c.ClassifierModel) != ""
}
