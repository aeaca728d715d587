package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/match3duel/internal/factory"
	"github.com/mcoot/match3duel/internal/services/session"
	"github.com/mcoot/match3duel/internal/testutil"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"STORAGE_TYPE", "SQLITE_PATH", "REDIS_URL", "GAME_DURATION_SECONDS"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaultsToSQLite(t *testing.T) {
	clearEnv(t)

	cfg, err := loadConfig(testutil.NopLogger())
	require.NoError(t, err)

	assert.Equal(t, factory.StorageTypeSQLite, cfg.StorageType)
	require.NotNil(t, cfg.SQLiteConfig)
	assert.Equal(t, session.DefaultConfig(), cfg.SessionConfig)
}

func TestLoadConfigSQLitePath(t *testing.T) {
	clearEnv(t)
	t.Setenv("SQLITE_PATH", "/var/lib/m3duel/ratings.db")

	cfg, err := loadConfig(testutil.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/m3duel/ratings.db", cfg.SQLiteConfig.Path)
}

func TestLoadConfigRedis(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_TYPE", factory.StorageTypeRedis)

	_, err := loadConfig(testutil.NopLogger())
	assert.ErrorContains(t, err, "REDIS_URL")

	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	cfg, err := loadConfig(testutil.NopLogger())
	require.NoError(t, err)
	require.NotNil(t, cfg.RedisConfig)
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisConfig.URL)
	assert.Nil(t, cfg.SQLiteConfig)
}

func TestLoadConfigGameDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAME_DURATION_SECONDS", "30")

	cfg, err := loadConfig(testutil.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.SessionConfig.Duration)
	assert.Equal(t, time.Second, cfg.SessionConfig.TickInterval)

	for _, raw := range []string{"0", "-5", "soon"} {
		t.Setenv("GAME_DURATION_SECONDS", raw)
		_, err := loadConfig(testutil.NopLogger())
		assert.Error(t, err, "GAME_DURATION_SECONDS=%s", raw)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.raw), "LOG_LEVEL=%q", tt.raw)
	}
}
