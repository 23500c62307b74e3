// Package config loads runtime settings for the fsmlight commands from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/fsmlight/internal/logging"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into Config.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrInvalidConfig is returned when a parsed value is out of range.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config holds every environment-driven setting. CLI flags override these values.
type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`
	RedisAddr   string `env:"REDIS_ADDR"`
	RedisStream string `env:"REDIS_STREAM" envDefault:"fsmlight:events"`
	RedisMaxLen int64  `env:"REDIS_MAXLEN" envDefault:"1000"`
	MaxTicks    int    `env:"MAX_TICKS" envDefault:"1000"`
	JournalSize int    `env:"JOURNAL_SIZE" envDefault:"256"`
}

// Prefix is prepended to every variable name.
const Prefix = "FSMLIGHT_"

// Load reads the given dotenv files (or ./.env when present and none are given), then
// parses FSMLIGHT_* variables. Variables already set in the environment win over files.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Config{}, fmt.Errorf("failed to load env files: %w", err)
		}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.LogFormat != logging.FormatText && c.LogFormat != logging.FormatJSON {
		return fmt.Errorf("%w: log format must be %q or %q", ErrInvalidConfig, logging.FormatText, logging.FormatJSON)
	}
	if c.MaxTicks <= 0 {
		return fmt.Errorf("%w: max ticks must be positive", ErrInvalidConfig)
	}
	if c.JournalSize <= 0 {
		return fmt.Errorf("%w: journal size must be positive", ErrInvalidConfig)
	}
	if c.RedisMaxLen < 0 {
		return fmt.Errorf("%w: redis max length must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() slog.Level {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// Logger builds the application logger on stderr.
func (c Config) Logger() (*slog.Logger, error) {
	return logging.NewWithFormat(os.Stderr, c.Level(), c.LogFormat)
}
