package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8084", cfg.Address())
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "superstore.csv", cfg.Data.CSVFile)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Security.EnableRateLimit)
	assert.Equal(t, []string{"http://localhost:8084"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, DashboardConfig{TopN: 10, SampleSize: 1000, TableRows: 1000}, cfg.Dashboard)
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")
	t.Setenv("CSV_FILE", "/data/orders.csv")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SECURITY_RATE_LIMIT_ENABLED", "false")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("DASHBOARD_TOP_N", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/data/orders.csv", cfg.Data.CSVFile)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.False(t, cfg.Security.EnableRateLimit)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, 5, cfg.Dashboard.TopN)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DASHBOARD_TABLE_ROWS=250\nLOG_LEVEL=debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")
	t.Cleanup(func() { os.Unsetenv("DASHBOARD_TABLE_ROWS") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Dashboard.TableRows)
	assert.Equal(t, "warn", cfg.Logger.Level, "process environment wins over .env")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}},
		{"port not a number", map[string]string{"SERVER_PORT": "http"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"zero rps", map[string]string{"SECURITY_RATE_LIMIT_RPS": "0"}},
		{"sample too large", map[string]string{"DASHBOARD_SAMPLE_SIZE": "5000"}},
		{"zero table rows", map[string]string{"DASHBOARD_TABLE_ROWS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
