package config

import (
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

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "processed-documents", cfg.Storage.OutputContainer)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, 3, cfg.Queue.MaxDeliveries)
	assert.Equal(t, "operations", cfg.Google.OperationsCollection)
	assert.Equal(t, "documents", cfg.Google.DocumentsCollection)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DOCSPLIT_SERVER_PORT", "9090")
	t.Setenv("DOCSPLIT_QUEUE_WORKERS", "2")
	t.Setenv("DOCSPLIT_GOOGLE_PROJECT_ID", "demo-project")
	t.Setenv("DOCSPLIT_STORAGE_OUTPUT_CONTAINER", "results")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Queue.Workers)
	assert.Equal(t, "demo-project", cfg.Google.ProjectID)
	assert.Equal(t, "results", cfg.Storage.OutputContainer)
}

func TestLoadYAMLFileWithEnvOnTop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 7070
logging:
  level: debug
queue:
  workers: 8
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	t.Setenv("DOCSPLIT_CONFIG_FILE", path)
	t.Setenv("DOCSPLIT_QUEUE_WORKERS", "16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Environment wins over the file.
	assert.Equal(t, 16, cfg.Queue.Workers)
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("DOCSPLIT_SERVER_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestLoadInvalidWorkers(t *testing.T) {
	t.Setenv("DOCSPLIT_QUEUE_WORKERS", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("DOCSPLIT_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
