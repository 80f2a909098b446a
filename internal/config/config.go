package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the robot console
type Config struct {
	ServerURL            string   `toml:"server_url" mapstructure:"server_url"`   // e.g. "http://robot.local:8080"
	APIPath              string   `toml:"api_path" mapstructure:"api_path"`       // chat-robot API prefix
	DHAPIPath            string   `toml:"dh_api_path" mapstructure:"dh_api_path"` // digital-human API prefix
	StreamPath           string   `toml:"stream_path" mapstructure:"stream_path"`
	Token                string   `toml:"token" mapstructure:"token"` // validation token, "$VAR" reads the environment
	Username             string   `toml:"username" mapstructure:"username"`
	SubmitViaAPI         bool     `toml:"submit_via_api" mapstructure:"submit_via_api"`
	RequestTimeout       string   `toml:"request_timeout" mapstructure:"request_timeout"`
	PollBaseDelay        string   `toml:"poll_base_delay" mapstructure:"poll_base_delay"`
	PollMaxDelay         string   `toml:"poll_max_delay" mapstructure:"poll_max_delay"`
	ReconnectBaseDelay   string   `toml:"reconnect_base_delay" mapstructure:"reconnect_base_delay"` // first event stream reconnect wait
	ReconnectMaxDelay    string   `toml:"reconnect_max_delay" mapstructure:"reconnect_max_delay"`
	Renderer             string   `toml:"renderer" mapstructure:"renderer"`         // terminal, html or plain
	RenderStyle          string   `toml:"render_style" mapstructure:"render_style"` // glamour style or "auto"
	PromptDirs           []string `toml:"prompt_dirs" mapstructure:"prompt_dirs"`
	LogLevel             string   `toml:"log_level" mapstructure:"log_level"`
	SessionRetentionDays int      `toml:"session_retention_days" mapstructure:"session_retention_days"` // 0 = keep forever

	requestTimeout     time.Duration
	pollBaseDelay      time.Duration
	pollMaxDelay       time.Duration
	reconnectBaseDelay time.Duration
	reconnectMaxDelay  time.Duration
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig(promptDir string) *Config {
	return &Config{
		ServerURL:            "http://localhost:8080",
		APIPath:              "/chat-robot/api",
		DHAPIPath:            "/sdl-robot/api",
		StreamPath:           "/websocket",
		Token:                "$CHATCONSOLE_VALIDATION", // Default to env var
		SubmitViaAPI:         false,
		RequestTimeout:       "30s",
		PollBaseDelay:        "500ms",
		PollMaxDelay:         "30s",
		ReconnectBaseDelay:   "500ms",
		ReconnectMaxDelay:    "30s",
		Renderer:             "terminal",
		RenderStyle:          "auto",
		PromptDirs:           []string{promptDir},
		LogLevel:             "warn",
		SessionRetentionDays: 30,
	}
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.resolve(); err != nil {
		return nil, err
	}
	return config, nil
}

// resolve expands environment references, parses durations and makes
// prompt directories absolute.
func (c *Config) resolve() error {
	token, err := expandEnvVar(c.Token)
	if err != nil {
		return fmt.Errorf("error expanding token: %w", err)
	}
	c.Token = token

	durations := []struct {
		key   string
		raw   string
		def   time.Duration
		value *time.Duration
	}{
		{"request_timeout", c.RequestTimeout, 30 * time.Second, &c.requestTimeout},
		{"poll_base_delay", c.PollBaseDelay, 500 * time.Millisecond, &c.pollBaseDelay},
		{"poll_max_delay", c.PollMaxDelay, 30 * time.Second, &c.pollMaxDelay},
		{"reconnect_base_delay", c.ReconnectBaseDelay, 500 * time.Millisecond, &c.reconnectBaseDelay},
		{"reconnect_max_delay", c.ReconnectMaxDelay, 30 * time.Second, &c.reconnectMaxDelay},
	}
	for _, d := range durations {
		v, err := parseDuration(d.raw, d.def)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.key, d.raw, err)
		}
		*d.value = v
	}
	if c.pollMaxDelay < c.pollBaseDelay {
		return fmt.Errorf("poll_max_delay (%s) is shorter than poll_base_delay (%s)", c.pollMaxDelay, c.pollBaseDelay)
	}
	if c.reconnectMaxDelay < c.reconnectBaseDelay {
		return fmt.Errorf("reconnect_max_delay (%s) is shorter than reconnect_base_delay (%s)", c.reconnectMaxDelay, c.reconnectBaseDelay)
	}

	// Convert prompt directories to absolute paths
	for i, promptDir := range c.PromptDirs {
		absPath, err := ResolvePath(promptDir)
		if err != nil {
			return fmt.Errorf("error resolving prompt directory path '%s': %w", promptDir, err)
		}
		c.PromptDirs[i] = absPath
	}
	return nil
}

func parseDuration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration")
	}
	return d, nil
}
