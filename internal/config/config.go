package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
)

type Config struct {
	Addr        string `env:"TODO_ADDR" envDefault:":8787"`
	Store       string `env:"TODO_STORE" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"TODO_SQLITE_PATH" envDefault:"./data/todo.db"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Basic auth secrets. Password may be a bcrypt hash.
	Username string `env:"USERNAME,required,notEmpty"`
	Password string `env:"PASSWORD,required,notEmpty"`

	MeiliURL       string `env:"MEILI_URL"`
	MeiliMasterKey string `env:"MEILI_MASTER_KEY"`

	LogLevel  string `env:"TODO_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"TODO_LOG_FORMAT" envDefault:"json"`

	MaxBodyBytes    int64         `env:"TODO_MAX_BODY_BYTES" envDefault:"65536"`
	ShutdownTimeout time.Duration `env:"TODO_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected store has what it needs to connect.
func (c Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for store %q", c.Store)
		}
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("TODO_SQLITE_PATH is required for store %q", c.Store)
		}
	case StoreRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required for store %q", c.Store)
		}
	default:
		return fmt.Errorf("unknown store %q (want postgres, sqlite or redis)", c.Store)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("TODO_MAX_BODY_BYTES must be positive")
	}
	return nil
}

// SearchEnabled reports whether a Meilisearch index was configured.
func (c Config) SearchEnabled() bool {
	return strings.TrimSpace(c.MeiliURL) != ""
}
