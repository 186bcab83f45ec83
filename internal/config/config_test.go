package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReturnsDefaultsWhenMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.False(t, cfg.LogConsole)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TIMEGRID_SERVER_URL", "https://time.example.com")
	t.Setenv("TIMEGRID_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://time.example.com", cfg.ServerURL)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.ServerURL = "https://time.example.com"
	cfg.LogLevel = "WARN"
	cfg.LogConsole = true
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.ServerURL, loaded.ServerURL)
	assert.Equal(t, cfg.LogLevel, loaded.LogLevel)
	assert.True(t, loaded.LogConsole)
}
