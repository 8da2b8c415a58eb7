package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, DefaultPort, cfg.Gateway.Port)
	assert.Equal(t, "loopback", cfg.Gateway.Bind)
	assert.Equal(t, "/callback", cfg.Line.WebhookPath)
	assert.Equal(t, "/ws", cfg.WebChat.Path)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 60, cfg.Session.IdleMinutes)
	assert.Equal(t, "Asia/Bangkok", cfg.Hours.Timezone)
	assert.Equal(t, []string{"sunday"}, cfg.Hours.ClosedDays)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Intakes.Record)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Gateway.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
gateway:
  port: 9999
  bind: lan
  auth:
    token: webchat-secret
line:
  enabled: true
  channelSecret: s3cret
  channelAccessToken: tok
session:
  store: sqlite
  idleMinutes: 15
hours:
  timezone: Asia/Tokyo
  closedDays: [saturday, sunday]
  open: "08:30"
  close: "17:30"
business:
  name: Example Computer
  phone: 02-123-4567
logging:
  level: debug
  consoleStyle: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Gateway.Port)
	assert.Equal(t, "lan", cfg.Gateway.Bind)
	assert.Equal(t, "webchat-secret", cfg.Gateway.Auth.Token)
	assert.True(t, cfg.Line.Enabled)
	assert.Equal(t, "s3cret", cfg.Line.ChannelSecret)
	assert.Equal(t, "/callback", cfg.Line.WebhookPath)
	assert.Equal(t, "sqlite", cfg.Session.Store)
	assert.Equal(t, 15, cfg.Session.IdleMinutes)
	assert.Equal(t, "Asia/Tokyo", cfg.Hours.Timezone)
	assert.Equal(t, []string{"saturday", "sunday"}, cfg.Hours.ClosedDays)
	assert.Equal(t, "Example Computer", cfg.Business.Name)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)

	assert.Empty(t, Validate(&cfg))
}

func TestLoadPartialYAMLKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("business:\n  name: Shop\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Shop", cfg.Business.Name)
	assert.Equal(t, DefaultPort, cfg.Gateway.Port)
	assert.Equal(t, "Asia/Bangkok", cfg.Hours.Timezone)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SHOPDESK_GATEWAY_PORT", "7777")
	t.Setenv("SHOPDESK_LOG_LEVEL", "DEBUG")
	t.Setenv("SHOPDESK_SESSION_STORE", "redis")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Gateway.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "redis", cfg.Session.Store)
}

func TestLoadExpandsSecretReferences(t *testing.T) {
	t.Setenv("TEST_LINE_SECRET", "from-env")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("line:\n  channelSecret: ${TEST_LINE_SECRET}\n  channelAccessToken: ${TEST_UNSET_VAR_XYZ}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Line.ChannelSecret)
	assert.Equal(t, "${TEST_UNSET_VAR_XYZ}", cfg.Line.ChannelAccessToken)
}

func TestLoadSecretsFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CHANNEL_SECRET=dotenv-secret\nREDIS_URL=redis://localhost:6379/0\n"), 0o600))

	// Pre-set values are not overridden by the file.
	t.Setenv("CHANNEL_ACCESS_TOKEN", "preset-token")
	t.Setenv("CHANNEL_SECRET", "")
	os.Unsetenv("CHANNEL_SECRET")
	t.Setenv("REDIS_URL", "")
	os.Unsetenv("REDIS_URL")

	s, err := LoadSecrets(envFile)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-secret", s.ChannelSecret)
	assert.Equal(t, "preset-token", s.ChannelAccessToken)
	assert.Equal(t, "redis://localhost:6379/0", s.RedisURL)
}

func TestLoadSecretsMissingEnvFile(t *testing.T) {
	t.Setenv("SHOPDESK_GATEWAY_TOKEN", "gw")
	s, err := LoadSecrets(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "gw", s.GatewayToken)
}

func TestSecretsApplyKeepsFileValues(t *testing.T) {
	cfg := Defaults()
	cfg.Line.ChannelSecret = "from-file"

	Secrets{ChannelSecret: "from-env", ChannelAccessToken: "tok", GatewayToken: "gw"}.Apply(&cfg)

	assert.Equal(t, "from-file", cfg.Line.ChannelSecret)
	assert.Equal(t, "tok", cfg.Line.ChannelAccessToken)
	assert.Equal(t, "gw", cfg.Gateway.Auth.Token)
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("Sunday")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, d)

	d, err = ParseWeekday(" sat ")
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, d)

	_, err = ParseWeekday("someday")
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, 8*60+30, m)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
	_, err = ParseClock("8am")
	assert.Error(t, err)
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw := map[string]any{
		"session": map[string]any{
			"store": "sqlite",
		},
	}
	require.NoError(t, SaveRaw(path, raw))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)

	val, ok := GetValueAtPath(loaded, []string{"session", "store"})
	assert.True(t, ok)
	assert.Equal(t, "sqlite", val)
}

func TestLoadRawMissingFile(t *testing.T) {
	raw, err := LoadRaw(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestDecodeAppliesDefaults(t *testing.T) {
	cfg, err := Decode(map[string]any{
		"session": map[string]any{"store": "sqlite"},
		"hours":   map[string]any{"open": "09:00", "close": "18:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Session.Store)
	assert.Equal(t, "09:00", cfg.Hours.Open)
	assert.Equal(t, DefaultPort, cfg.Gateway.Port)
	assert.Equal(t, DefaultTimezone, cfg.Hours.Timezone)
	assert.Empty(t, Validate(&cfg))
}

func TestDecodeRejectsWrongTypes(t *testing.T) {
	_, err := Decode(map[string]any{"gateway": map[string]any{"port": "not-a-number"}})
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
