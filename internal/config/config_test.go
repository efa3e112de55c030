package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "tundra.db", cfg.DBPath)
	assert.Equal(t, 16, cfg.MaxCapacity)
	assert.True(t, cfg.AutoGenerateBracket)
	assert.Empty(t, cfg.AdminIDs)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, time.Minute, cfg.PromoteInterval)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("TUNDRA_HTTP_ADDR", ":9090")
	t.Setenv("TUNDRA_MAX_CAPACITY", "32")
	t.Setenv("TUNDRA_AUTO_GENERATE_BRACKET", "false")
	t.Setenv("TUNDRA_ADMIN_IDS", "alice,bob")
	t.Setenv("TUNDRA_LOG_LEVEL", "debug")
	t.Setenv("TUNDRA_PROMOTE_INTERVAL", "15s")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 32, cfg.MaxCapacity)
	assert.False(t, cfg.AutoGenerateBracket)
	assert.Equal(t, []string{"alice", "bob"}, cfg.AdminIDs)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.PromoteInterval)
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "capacity not a number", key: "TUNDRA_MAX_CAPACITY", value: "lots"},
		{name: "capacity too small", key: "TUNDRA_MAX_CAPACITY", value: "1"},
		{name: "negative interval", key: "TUNDRA_PROMOTE_INTERVAL", value: "-1s"},
		{name: "unknown level", key: "TUNDRA_LOG_LEVEL", value: "chatty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
