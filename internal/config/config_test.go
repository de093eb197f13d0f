package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "astrascore.db", cfg.SQLitePath)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, time.Minute, cfg.ReconcileInterval)
	assert.Empty(t, cfg.PointTable)
	assert.Equal(t, 40, cfg.RateLimitBurst)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/astra")
	t.Setenv("TICK_INTERVAL", "250ms")
	t.Setenv("POINT_TABLE", "3,2,1")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, []int{3, 2, 1}, cfg.PointTable)
}

func TestLoadPointTableFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "astrascore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("point_table: [12, 9, 7]\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int{12, 9, 7}, cfg.PointTable)

	t.Setenv("POINT_TABLE", "1")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, cfg.PointTable, "environment wins over the file")
}

func TestLoadRejectsBadSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":       {"STORE_DRIVER": "mongo"},
		"postgres without url": {"STORE_DRIVER": "postgres"},
		"zero tick":            {"TICK_INTERVAL": "0s"},
		"bad duration":         {"POLL_INTERVAL": "soon"},
		"bad level":            {"LOG_LEVEL": "loud"},
		"bad format":           {"LOG_FORMAT": "xml"},
		"bad point table":      {"POINT_TABLE": "ten"},
		"negative points":      {"POINT_TABLE": "3,-1"},
		"missing file":         {"CONFIG_FILE": "/nonexistent/astrascore.yaml"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsNegativePointsInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "astrascore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("point_table: [5, -2]\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{LogLevel: "warn", LogFormat: "json"}

	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "event_id", "e1")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"event_id":"e1"`)
}
