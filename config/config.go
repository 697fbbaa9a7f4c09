package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds all the configuration for the application
type Config struct {
	BotToken     string `env:"BOT_TOKEN,required"`
	StoreDriver  string `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabasePath string `env:"DB_PATH" envDefault:"./data/queens.db"`
	RedisAddr    string `env:"REDIS_ADDR"`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`
	PortraitDir  string `env:"PORTRAIT_DIR"`
	LogMode      string `env:"LOG_MODE" envDefault:"dev"`
	Debug        bool   `env:"DEBUG" envDefault:"false"`
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN environment variable is required")
	}
	switch c.StoreDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return errors.New("DB_PATH must not be empty for the sqlite driver")
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR environment variable is required for the redis driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}
