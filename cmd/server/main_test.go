package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowett/primedigitsum/internal/platform/config"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "")
	cfg, err := loadSettings(config.New().Prefix("TEST_"))
	require.NoError(t, err)

	assert.Equal(t, settings{
		Addr:            ":8080",
		DBPath:          "./ds.db",
		MaxRadix:        50,
		MaxSpan:         10_000_000,
		Workers:         0,
		ShutdownTimeout: 10 * time.Second,
	}, cfg)
}

func TestLoadSettings_FromEnv(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/tmp/results.db")
	t.Setenv("TEST_SERVER_PORT", "9090")
	t.Setenv("TEST_SERVER_MAX_RADIX", "20")
	t.Setenv("TEST_SERVER_MAX_SPAN", "5000")
	t.Setenv("TEST_SERVER_WORKERS", "4")
	t.Setenv("TEST_SERVER_SHUTDOWN_TIMEOUT", "2s")

	cfg, err := loadSettings(config.New().Prefix("TEST_"))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "/tmp/results.db", cfg.DBPath)
	assert.Equal(t, uint32(20), cfg.MaxRadix)
	assert.Equal(t, uint64(5000), cfg.MaxSpan)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Setenv("TEST_SERVER_PORT", "70000")
	_, err := loadSettings(config.New().Prefix("TEST_"))
	assert.Error(t, err)

	t.Setenv("TEST_SERVER_PORT", "8080")
	t.Setenv("TEST_SERVER_MAX_RADIX", "51")
	_, err = loadSettings(config.New().Prefix("TEST_"))
	assert.Error(t, err)
}
