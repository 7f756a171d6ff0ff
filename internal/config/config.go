// Package config loads application settings from the environment and .env files.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreBadger   = "badger"
)

// Config holds all configuration for the application.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE" envDefault:"./logs/kronos.log"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`

	// Store selects the TeamStore implementation: postgres or badger.
	Store string `env:"STORE" envDefault:"postgres"`

	Database Database

	BadgerDir      string `env:"BADGER_DIR" envDefault:"./data/badger"`
	BadgerInMemory bool   `env:"BADGER_IN_MEMORY" envDefault:"false"`
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName   string `env:"DB_NAME" envDefault:"kronos"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// DSN builds a libpq-compatible connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load reads a .env file if one exists and parses the environment into a Config.
func Load() (*Config, error) {
	envFiles := []string{".env"}
	if name := os.Getenv("ENV"); name != "" {
		envFiles = append([]string{".env." + name}, envFiles...)
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err == nil {
			break
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot start with.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres, StoreBadger:
	default:
		return fmt.Errorf("invalid STORE %q: must be %s or %s", c.Store, StorePostgres, StoreBadger)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Store == StoreBadger && !c.BadgerInMemory && c.BadgerDir == "" {
		return fmt.Errorf("BADGER_DIR is required unless BADGER_IN_MEMORY is set")
	}
	return nil
}
