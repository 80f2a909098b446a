package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("CHATCONSOLE_TEST_TOKEN", "secret")

	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{"literal", "abc", "abc", false},
		{"dollar", "$CHATCONSOLE_TEST_TOKEN", "secret", false},
		{"braces", "${CHATCONSOLE_TEST_TOKEN}", "secret", false},
		{"unset", "$CHATCONSOLE_TEST_UNSET", "", false},
		{"empty name", "$", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVar(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDurations(t *testing.T) {
	c := NewDefaultConfig("/tmp/prompts")
	c.Token = "tok"
	c.PollBaseDelay = "250ms"
	c.RequestTimeout = ""
	require.NoError(t, c.resolve())

	assert.Equal(t, 250*time.Millisecond, c.GetPollBaseDelay())
	assert.Equal(t, 30*time.Second, c.GetPollMaxDelay())
	assert.Equal(t, 30*time.Second, c.GetRequestTimeout())
	assert.Equal(t, 500*time.Millisecond, c.GetReconnectBaseDelay())
	assert.Equal(t, 30*time.Second, c.GetReconnectMaxDelay())
}

func TestReconnectDelaysIndependentOfPoll(t *testing.T) {
	c := NewDefaultConfig("/tmp/prompts")
	c.Token = "tok"
	c.PollBaseDelay = "2s"
	c.ReconnectBaseDelay = "100ms"
	c.ReconnectMaxDelay = "1s"
	require.NoError(t, c.resolve())

	assert.Equal(t, 2*time.Second, c.GetPollBaseDelay())
	assert.Equal(t, 100*time.Millisecond, c.GetReconnectBaseDelay())
	assert.Equal(t, time.Second, c.GetReconnectMaxDelay())
}

func TestResolveRejectsBadDurations(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"garbage", func(c *Config) { c.RequestTimeout = "soon" }},
		{"negative", func(c *Config) { c.PollBaseDelay = "-1s" }},
		{"max below base", func(c *Config) { c.PollBaseDelay = "10s"; c.PollMaxDelay = "1s" }},
		{"reconnect max below base", func(c *Config) { c.ReconnectBaseDelay = "1m"; c.ReconnectMaxDelay = "30s" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDefaultConfig("/tmp/prompts")
			tt.modify(c)
			assert.Error(t, c.resolve())
		})
	}
}

func TestRequireToken(t *testing.T) {
	c := &Config{}
	_, err := c.RequireToken()
	assert.Error(t, err)

	c.Token = "tok"
	tok, err := c.RequireToken()
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("CHATCONSOLE_TEST_TOKEN", "from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg := NewDefaultConfig("prompts")
	cfg.ServerURL = "http://robot.local:9000"
	cfg.Token = "$CHATCONSOLE_TEST_TOKEN"
	cfg.PollMaxDelay = "5s"

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, toml.NewEncoder(f).Encode(cfg))
	require.NoError(t, f.Close())

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://robot.local:9000", loaded.GetServerURL())
	assert.Equal(t, "from-env", loaded.GetToken())
	assert.Equal(t, 5*time.Second, loaded.GetPollMaxDelay())
	assert.Equal(t, []string{filepath.Join(dir, "prompts")}, loaded.PromptDirs)
	assert.Equal(t, 30, loaded.SessionRetentionDays)
}

func TestResolvePathAbsolute(t *testing.T) {
	got, err := ResolvePath("/etc/chatconsole/prompts")
	require.NoError(t, err)
	assert.Equal(t, "/etc/chatconsole/prompts", got)
}
