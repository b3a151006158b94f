package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
service:
  name: testbot
  log_level: DEBUG
  command_prefix: "!"
  poll_timeout: 5
  drain_timeout: 3s
telegram:
  token: "123:abc"
  api_base: "http://localhost:8081"
state:
  path: /tmp/test.db
api:
  enabled: true
  listen: "127.0.0.1:9000"
  api_key: sekrit
plugins:
  pasta:
    enabled: true
    dir: /tmp/pasta
  currency:
    enabled: true
    operators: [tanner, klawk]
    admin: klawk
    grubstake: 250
    name: shells
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "testbot", cfg.Service.Name)
	assert.Equal(t, "!", cfg.Service.CommandPrefix)
	assert.Equal(t, 5, cfg.Service.PollTimeout)
	assert.Equal(t, 3*time.Second, cfg.Service.DrainTimeout)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "http://localhost:8081", cfg.Telegram.APIBase)
	assert.Equal(t, []string{"tanner", "klawk"}, cfg.Plugins.Currency.Operators)
	assert.Equal(t, "klawk", cfg.Plugins.Currency.Admin)
	assert.Equal(t, int64(250), cfg.Plugins.Currency.Grubstake)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "telegram:\n  token: \"123:abc\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "parley", cfg.Service.Name)
	assert.Equal(t, "INFO", cfg.Service.LogLevel)
	assert.Equal(t, "json", cfg.Service.LogFormat)
	assert.Equal(t, "/", cfg.Service.CommandPrefix)
	assert.Equal(t, 30, cfg.Service.PollTimeout)
	assert.Equal(t, 10*time.Second, cfg.Service.DrainTimeout)
	assert.Equal(t, "./state/parley.db", cfg.State.Path)
	assert.False(t, cfg.API.Enabled)
	assert.Equal(t, int64(100), cfg.Plugins.Currency.Grubstake)
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv("PARLEY_TEST_TOKEN", "999:xyz")
	cfg, err := Load(writeConfig(t, "telegram:\n  token: \"${PARLEY_TEST_TOKEN}\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "999:xyz", cfg.Telegram.Token)
}

func TestUndefinedEnvVarFailsValidation(t *testing.T) {
	_, err := Load(writeConfig(t, "telegram:\n  token: \"${PARLEY_NO_SUCH_VAR}\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PARLEY_NO_SUCH_VAR")
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing token",
			yaml:    "service:\n  name: x\n",
			wantErr: "telegram.token is required",
		},
		{
			name:    "multi-char prefix",
			yaml:    "service:\n  command_prefix: \"//\"\ntelegram:\n  token: \"1:a\"\n",
			wantErr: "command_prefix",
		},
		{
			name:    "api without key",
			yaml:    "telegram:\n  token: \"1:a\"\napi:\n  enabled: true\n",
			wantErr: "api.api_key",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}
