package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr            string        `env:"TUNDRA_HTTP_ADDR" envDefault:":8080"`
	DBPath              string        `env:"TUNDRA_DB_PATH" envDefault:"tundra.db"`
	MaxCapacity         int           `env:"TUNDRA_MAX_CAPACITY" envDefault:"16"`
	AutoGenerateBracket bool          `env:"TUNDRA_AUTO_GENERATE_BRACKET" envDefault:"true"`
	AdminIDs            []string      `env:"TUNDRA_ADMIN_IDS" envSeparator:","`
	LogLevel            slog.Level    `env:"TUNDRA_LOG_LEVEL" envDefault:"info"`
	CORSOrigins         []string      `env:"TUNDRA_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	PromoteInterval     time.Duration `env:"TUNDRA_PROMOTE_INTERVAL" envDefault:"1m"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxCapacity < 2 {
		return Config{}, fmt.Errorf("TUNDRA_MAX_CAPACITY must be at least 2, got %d", cfg.MaxCapacity)
	}
	if cfg.PromoteInterval <= 0 {
		return Config{}, fmt.Errorf("TUNDRA_PROMOTE_INTERVAL must be positive, got %s", cfg.PromoteInterval)
	}
	return cfg, nil
}
