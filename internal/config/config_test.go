package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(), "", "")
	require.NoError(t, err)

	assert.Equal(t, "inventar.sqlite3", cfg.DB.Path)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, time.Minute, cfg.Cache.SweepInterval)
	assert.Equal(t, 10*time.Second, cfg.Store.OpTimeout)
	assert.Equal(t, "inventar.cache.invalidate", cfg.NATS.Subject)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inventar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db:
  path: /var/lib/inventar/data.sqlite3
cache:
  ttl: 5s
log:
  level: debug
`), 0o644))

	t.Setenv("INVENTAR_HTTP_ADDR", "127.0.0.1:9000")

	cfg, err := Load(New(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/inventar/data.sqlite3", cfg.DB.Path)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("INVENTAR_NATS_URL=nats://localhost:4222\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("INVENTAR_NATS_URL") })
	t.Chdir(dir)

	cfg, err := Load(New(), "", envPath)
	require.NoError(t, err)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(New(), "", "does-not-exist.env")
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())

	v := New()
	v.Set(KeyCacheTTL, "0s")
	_, err := Load(v, "", "")
	assert.Error(t, err)

	v = New()
	v.Set(KeyLogLevel, "loud")
	_, err = Load(v, "", "")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}
