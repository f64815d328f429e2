package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// inTempDir changes to an empty directory so no config.yaml is found.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://backend.botconversa.com.br/api/v1/webhook", cfg.BotConversa.BaseURL)
	assert.False(t, cfg.BotConversa.RealMode)
	assert.Equal(t, 30, cfg.BotConversa.TimeoutSecs)
	assert.Equal(t, 6, cfg.BotConversa.MaxAttempts)
	assert.Zero(t, cfg.BotConversa.RateLimitRPS)
	assert.Equal(t, 250, cfg.Bulk.DelayMS)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
botconversa:
  real_mode: true
  max_attempts: 3
  rate_limit_rps: 5
log:
  level: debug
  format: console
server:
  port: 9090
  allowed_origins:
    - https://app.example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.BotConversa.RealMode)
	assert.Equal(t, 3, cfg.BotConversa.MaxAttempts)
	assert.InDelta(t, 5.0, cfg.BotConversa.RateLimitRPS, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	// Defaults still apply for unset values
	assert.Equal(t, 30, cfg.BotConversa.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
log:
  level: debug
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("BCPROXY_LOG_LEVEL", "warn")
	t.Setenv("BCPROXY_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadLegacyEnv(t *testing.T) {
	inTempDir(t)

	t.Setenv("REAL_MODE", "true")
	t.Setenv("BATCH_DELAY_MS", "100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.BotConversa.RealMode)
	assert.Equal(t, 100, cfg.Bulk.DelayMS)
}

func TestLoadPrefixedEnvWinsOverLegacy(t *testing.T) {
	inTempDir(t)

	t.Setenv("REAL_MODE", "true")
	t.Setenv("BCPROXY_BOTCONVERSA_REAL_MODE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.BotConversa.RealMode)
}

func TestLoadBadYAML(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func TestNewLoggerAddsServiceField(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger, err := newLogger(LogConfig{Level: "info", Format: "json"},
		zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))
	require.NoError(t, err)

	logger.Info("bulk: starting")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "bcproxy", entries[0].ContextMap()["service"])
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	return &Config{
		BotConversa: BotConversaConfig{
			BaseURL:     "https://backend.botconversa.com.br/api/v1/webhook",
			TimeoutSecs: 30,
			MaxAttempts: 6,
		},
		Bulk:   BulkConfig{DelayMS: 250},
		Server: ServerConfig{Port: 8080, AllowedOrigins: []string{"*"}},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero timeout", func(c *Config) { c.BotConversa.TimeoutSecs = 0 }, "TimeoutSecs"},
		{"negative attempts", func(c *Config) { c.BotConversa.MaxAttempts = -1 }, "MaxAttempts"},
		{"negative rate", func(c *Config) { c.BotConversa.RateLimitRPS = -2 }, "RateLimitRPS"},
		{"missing base url", func(c *Config) { c.BotConversa.BaseURL = "" }, "BaseURL"},
		{"negative delay", func(c *Config) { c.Bulk.DelayMS = -1 }, "DelayMS"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "Port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "Port"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "Format"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "Level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ZeroDelayAllowed(t *testing.T) {
	cfg := validDefaults()
	cfg.Bulk.DelayMS = 0
	cfg.BotConversa.RateLimitRPS = 0
	assert.NoError(t, cfg.Validate())
}
