package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heurist-network/mesh-client-go/mesh"
)

func TestDefault(t *testing.T) {
	t.Setenv(mesh.APIKeyEnvVar, "")

	cfg := Default()
	assert.Equal(t, mesh.DefaultBaseURL, cfg.BaseURL)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, time.Second, cfg.PollInterval())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestDefaultPicksUpEnvKey(t *testing.T) {
	t.Setenv(mesh.APIKeyEnvVar, "env-key")

	cfg := Default()
	assert.Equal(t, "env-key", cfg.APIKey)
}

func TestLoad(t *testing.T) {
	t.Setenv(mesh.APIKeyEnvVar, "env-key")

	path := filepath.Join(t.TempDir(), "mesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: http://localhost:8080/
api_key: file-key
timeout_seconds: 5
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/", cfg.BaseURL)
	// file key wins over environment
	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched fields still get defaults
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, time.Second, cfg.PollInterval())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
