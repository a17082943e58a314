package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 8080
  mode: debug
providers:
  - id: ewg
    enabled: true
    priority: 1
    weight: 0.25
database:
  host: localhost
  port: 5432
  user: user
  password: password
  db_name: irae
  max_conns: 10
orchestrator:
  max_global_in_flight: 64
cache:
  l1_max_entries: 1000
log:
  level: info
  format: json
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "irae", cfg.Database.DBName)
	assert.Len(t, cfg.Providers, 1)
	assert.Equal(t, "ewg", cfg.Providers[0].ID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultKafkaTopic, cfg.Kafka.Topic)
	assert.Equal(t, DefaultMinIOBucket, cfg.MinIO.Bucket)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("IRAE_DATABASE_HOST", "db.internal")
	t.Setenv("IRAE_DATABASE_PORT", "5433")
	t.Setenv("IRAE_DATABASE_USER", "svc")
	t.Setenv("IRAE_DATABASE_DB_NAME", "irae")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
}

func TestMustLoad_PanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
