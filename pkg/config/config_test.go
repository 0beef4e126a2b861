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
	t.Chdir(t.TempDir())

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.Granularity)
	assert.Zero(t, cfg.Scheduler.MaxNodes)
	assert.Zero(t, cfg.Scheduler.Timeout)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", EnvProduction)
	t.Setenv("SCHEDULER_GRANULARITY", "15m")
	t.Setenv("SCHEDULER_MAX_NODES", "5000")
	t.Setenv("SCHEDULER_TIMEOUT", "10s")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Granularity)
	assert.Equal(t, uint64(5000), cfg.Scheduler.MaxNodes)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.Timeout)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_PORT=9090\nCACHE_TTL=5m\n"), 0600))
	t.Chdir(dir)
	// Empty variables keep godotenv from exporting the file into the process environment
	t.Setenv("HTTP_PORT", "")
	t.Setenv("CACHE_TTL", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("-5s", time.Minute))
	assert.Equal(t, 2*time.Hour, parseDuration("2h", time.Minute))
}
