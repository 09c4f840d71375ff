package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{"ADMIN_JWT_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.True(t, cfg.Migrate)
	assert.Equal(t, 10*time.Second, cfg.UsageFlushInterval)
	assert.Equal(t, 2*time.Second, cfg.UsageTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.Equal(t, float64(20), cfg.RateLimitBurst)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"ADMIN_JWT_SECRET":     "s3cret",
		"PORT":                 "5000",
		"DATABASE_DSN":         "postgres://u:p@db/redirector",
		"MIGRATE":              "false",
		"REDIS_ADDR":           "redis:6379",
		"USAGE_FLUSH_INTERVAL": "1m",
		"CORS_ORIGINS":         "https://admin.a.test, https://admin.b.test",
		"RATE_LIMIT_RPS":       "2.5",
		"LOG_FORMAT":           "text",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Addr)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.False(t, cfg.Migrate)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, time.Minute, cfg.UsageFlushInterval)
	assert.Equal(t, []string{"https://admin.a.test", "https://admin.b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestFromEnv_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":       {},
		"postgres without dsn": {"ADMIN_JWT_SECRET": "s", "STORE": "postgres"},
		"unknown store":        {"ADMIN_JWT_SECRET": "s", "STORE": "firestore"},
		"bad duration":         {"ADMIN_JWT_SECRET": "s", "USAGE_TIMEOUT": "soon"},
		"negative duration":    {"ADMIN_JWT_SECRET": "s", "USAGE_FLUSH_INTERVAL": "-1s"},
		"bad bool":             {"ADMIN_JWT_SECRET": "s", "MIGRATE": "maybe"},
		"negative rate":        {"ADMIN_JWT_SECRET": "s", "RATE_LIMIT_RPS": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(envOf(env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ADMIN_JWT_SECRET=from-file\nADDR=127.0.0.1:9999\n"), 0o600))
	t.Setenv("ADMIN_JWT_SECRET", "")
	t.Setenv("ADDR", "")
	os.Unsetenv("ADMIN_JWT_SECRET")
	os.Unsetenv("ADDR")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.AdminJWTSecret)
	assert.Equal(t, "127.0.0.1:9999", cfg.Addr)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "env-secret")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.AdminJWTSecret)
}
