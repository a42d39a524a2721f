package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, filepath.IsAbs(cfg.Database.DataDir))
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 1, cfg.Journal.Workers)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("JOURNAL_WORKERS", "not-a-number")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 1, cfg.Journal.Workers, "bad values fall back to the default")
}

func TestLoadConfigFiles(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "collab.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
server:
  port: 7000
log:
  format: json
journal:
  workers: 4
  queue_size: 10
`), 0o644))

	cfg, err := LoadConfig(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Journal.Workers)
	assert.Equal(t, "localhost", cfg.Server.Host, "unset keys keep env defaults")

	jsonPath := filepath.Join(dir, "collab.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"server":{"host":"0.0.0.0"}}`), 0o644))

	cfg, err = LoadConfig(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoadConfigMissingFileUsesEnv(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	_, err := LoadConfig("")
	assert.Error(t, err, "postgres without a DSN")

	t.Setenv("DATABASE_DSN", "postgres://collab@localhost/collab")
	_, err = LoadConfig("")
	assert.NoError(t, err)

	t.Setenv("DATABASE_DRIVER", "mysql")
	_, err = LoadConfig("")
	assert.Error(t, err)
}
