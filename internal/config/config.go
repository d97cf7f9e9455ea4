package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	EnvListenAddr   = "SHEETS_LISTEN_ADDR"
	EnvDatabasePath = "DATABASE_FILEPATH"
	EnvLogLevel     = "SHEETS_LOG_LEVEL"
	EnvAllowOrigins = "SHEETS_ALLOW_ORIGINS"

	DefaultListenAddr = ":5000"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	ListenAddr string
	// DatabasePath selects the bbolt store; empty keeps sheets in memory.
	DatabasePath string
	LogLevel     slog.Level
	AllowOrigins []string
}

func Default() Config {
	return Config{
		ListenAddr:   DefaultListenAddr,
		LogLevel:     slog.LevelInfo,
		AllowOrigins: []string{"*"},
	}
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, falling back to Default for unset
// variables.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(getenv(EnvListenAddr)); v != "" {
		cfg.ListenAddr = v
	}
	cfg.DatabasePath = strings.TrimSpace(getenv(EnvDatabasePath))

	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		level, err := ParseLevel(v)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = level
	}

	if v := getenv(EnvAllowOrigins); strings.TrimSpace(v) != "" {
		cfg.AllowOrigins = SplitList(v)
		if err := validateOrigins(cfg.AllowOrigins); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// ParseLevel accepts slog level names (debug, info, warn, error) in any case.
func ParseLevel(text string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %s %q", ErrInvalidConfig, EnvLogLevel, text)
	}
	return level, nil
}

// SplitList splits a comma separated list, dropping blank items.
func SplitList(text string) []string {
	var out []string
	for _, item := range strings.Split(text, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// validateOrigins accepts "*" or absolute http(s) origins.
func validateOrigins(origins []string) error {
	for _, origin := range origins {
		if origin == "*" || strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
			continue
		}
		return fmt.Errorf("%w: %s origin %q", ErrInvalidConfig, EnvAllowOrigins, origin)
	}
	return nil
}
