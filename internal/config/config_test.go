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
	t.Setenv("FREIGHT_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "data/freightbase.db", cfg.Database.Path)
	assert.Equal(t, "data/uploads", cfg.Storage.UploadsDir)
	assert.Equal(t, "data/reports", cfg.Storage.ReportsDir)
	assert.Equal(t, int64(52428800), cfg.Extraction.MaxUploadBytes)
	assert.Equal(t, 4, cfg.Extraction.BatchWorkers)
	assert.True(t, cfg.Security.RateLimit.Enabled)
	assert.Equal(t, 50.0, cfg.Security.RateLimit.RPS)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FREIGHT_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("FREIGHT_SERVER_PORT", "9090")
	t.Setenv("FREIGHT_EXTRACTION_BATCH_WORKERS", "8")
	t.Setenv("FREIGHT_SECURITY_RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Extraction.BatchWorkers)
	assert.False(t, cfg.Security.RateLimit.Enabled)
}

func TestLoad_YAMLFileWithEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
server:
  port: 7000
extraction:
  batch_workers: 2
`), 0o644))

	t.Setenv("FREIGHT_CONFIG_FILE", configFile)
	t.Setenv("FREIGHT_SERVER_PORT", "7100")

	cfg, err := Load()
	require.NoError(t, err)

	// Environment wins over the file; file wins over defaults.
	assert.Equal(t, 7100, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Extraction.BatchWorkers)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server:     ServerConfig{Port: 8080},
		Extraction: ExtractionConfig{MaxUploadBytes: 1024, BatchWorkers: 1},
	}
	assert.NoError(t, valid.Validate())

	badPort := valid
	badPort.Server.Port = 0
	assert.Error(t, badPort.Validate())

	badSize := valid
	badSize.Extraction.MaxUploadBytes = 0
	assert.Error(t, badSize.Validate())

	badWorkers := valid
	badWorkers.Extraction.BatchWorkers = 0
	assert.Error(t, badWorkers.Validate())
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Storage: StorageConfig{
			DataDir:    filepath.Join(dir, "data"),
			UploadsDir: filepath.Join(dir, "data", "uploads"),
			ReportsDir: filepath.Join(dir, "data", "reports"),
		},
		Database: DatabaseConfig{Path: filepath.Join(dir, "data", "app.db")},
		Logging:  LoggingConfig{FilePath: filepath.Join(dir, "logs", "app.log")},
	}

	require.NoError(t, cfg.EnsureDirectories())

	for _, p := range []string{
		cfg.Storage.UploadsDir,
		cfg.Storage.ReportsDir,
		filepath.Join(dir, "logs"),
	} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.True(t, info.IsDir())
	}
}
