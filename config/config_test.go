package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Server.Idle_timeout)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, 50, cfg.Stores.VersionCapacity)
	assert.Equal(t, 10, cfg.Stores.VersionSlack)
	assert.Equal(t, 100, cfg.Stores.HistoryCapacity)
	assert.Equal(t, 50, cfg.Stores.PresetCapacity)
	assert.True(t, cfg.Filters.Rendering)
	assert.Equal(t, 92, cfg.Filters.JPEGQuality)
	assert.Empty(t, cfg.Events.Driver)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: "9090"
storage:
  backend: redis
events:
  driver: kafka
  kafka:
    brokers: ["k1:9092", "k2:9092"]
filters:
  output_format: png
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("SNAPMOD_STORES_PRESET_CAPACITY", "7")
	t.Setenv("SNAPMOD_STORAGE_BACKEND", "postgres")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Backend, "environment wins over the file")
	assert.Equal(t, 7, cfg.Stores.PresetCapacity)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Kafka.Brokers)
	assert.Equal(t, "png", cfg.Filters.OutputFormat)
	assert.Equal(t, "snapmod-render", cfg.Events.Kafka.GroupID)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [\n"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("SNAPMOD_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("SNAPMOD_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("SNAPMOD_TEST_UNSET", "fallback"))
}
