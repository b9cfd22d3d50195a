package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeFile(t, "config.yaml", "env: test\n")

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 30*time.Second, cfg.Storage.StatementTimeout)
	assert.Equal(t, "strict", cfg.Numbering.Strategy)
	assert.Equal(t, "stock <= reorder_level", cfg.Alerts.LowStockRule)
	assert.False(t, cfg.Worker.ReconcileFix)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	p := writeFile(t, "config.yaml", `
server:
  port: 9000
storage:
  driver: postgres
  database_url: postgres://file
worker:
  reconcile_interval: 5m
`)
	t.Setenv("SHOPLEDGER_STORAGE_DATABASE_URL", "postgres://env")
	t.Setenv("SHOPLEDGER_LOG_LEVEL", "debug")

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://env", cfg.Storage.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5*time.Minute, cfg.Worker.ReconcileInterval)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"postgres without url", "storage:\n  driver: postgres\n", "database_url"},
		{"unknown driver", "storage:\n  driver: sqlite\n", "unknown storage driver"},
		{"unknown numbering", "numbering:\n  strategy: random\n", "numbering strategy"},
		{"bad port", "server:\n  port: 0\n", "invalid server port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	p := writeFile(t, ".env", "SHOPLEDGER_TEST_DOTENV=from-file\n")
	t.Setenv("SHOPLEDGER_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("SHOPLEDGER_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), p))
	assert.Equal(t, "from-file", os.Getenv("SHOPLEDGER_TEST_DOTENV"))
}
