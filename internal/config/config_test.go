package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Chdir(dir)
	return path
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	path := writeConfig(t, `
app:
  env: dev
gateway:
  base_url: "http://catalog.local/api"
  timeout: 5s
telegram:
  admin_chat_id: 42
`)
	t.Setenv("APP_GATEWAY_TOKEN", "from-env")
	t.Setenv("APP_ASSISTANT_MODEL", "gemini-test")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, "http://catalog.local/api", c.Gateway.BaseURL)
	assert.Equal(t, 5*time.Second, c.Gateway.Timeout)
	assert.Equal(t, "from-env", c.Gateway.Token)
	assert.Equal(t, "gemini-test", c.Assistant.Model)
	assert.Equal(t, int64(42), c.Telegram.AdminChatID)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, 256, c.Gateway.CacheSize)
	assert.Equal(t, 3, c.Gateway.Retries)
	assert.Equal(t, 500*time.Millisecond, c.Gateway.RetryWait)
	assert.True(t, c.Agent.StartStructured)
	assert.False(t, c.Telegram.Enabled)
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := writeConfig(t, `
gateway:
  base_url: "http://catalog.local/api"
`)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), ".env"), []byte("APP_POSTGRES_DSN=postgres://from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("APP_POSTGRES_DSN") })

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://from-dotenv", c.Postgres.DSN)
}

func TestLoadRequiresGatewayURL(t *testing.T) {
	path := writeConfig(t, "app:\n  env: prod\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "gateway.base_url")
}
