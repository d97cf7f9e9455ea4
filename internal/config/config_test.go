package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromEnv(envOf(nil))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, ":5000", cfg.ListenAddr)
		assert.Empty(t, cfg.DatabasePath)
		assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
		assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := FromEnv(envOf(map[string]string{
			EnvListenAddr:   "127.0.0.1:8080",
			EnvDatabasePath: " /tmp/sheets.db ",
			EnvLogLevel:     "DEBUG",
			EnvAllowOrigins: "http://localhost:3000, ,https://example.com",
		}))
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
		assert.Equal(t, "/tmp/sheets.db", cfg.DatabasePath)
		assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
		assert.Equal(t, []string{"http://localhost:3000", "https://example.com"}, cfg.AllowOrigins)
	})

	t.Run("bad_level", func(t *testing.T) {
		_, err := FromEnv(envOf(map[string]string{EnvLogLevel: "loud"}))
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), EnvLogLevel)
	})
}

func TestFromEnv_BadOrigin(t *testing.T) {
	_, err := FromEnv(envOf(map[string]string{EnvAllowOrigins: "localhost:3000"}))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "localhost:3000")
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvListenAddr, ":9999")
	t.Setenv(EnvDatabasePath, "")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvAllowOrigins, "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(" , "))
	assert.Equal(t, []string{"a", "b"}, SplitList("a,b"))
}
