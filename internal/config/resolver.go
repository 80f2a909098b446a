package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// expandEnvVar expands environment variable references in the given value
// Supports both $VAR and ${VAR} syntax
// If the environment variable is not set, returns empty string.
func expandEnvVar(value string) (string, error) {
	if !strings.HasPrefix(value, "$") {
		return value, nil
	}

	var envVarName string
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVarName = value[2 : len(value)-1]
	} else {
		envVarName = strings.TrimPrefix(value, "$")
	}
	if envVarName == "" {
		return "", fmt.Errorf("empty environment variable name in %q", value)
	}

	return os.Getenv(envVarName), nil
}

// GetServerURL returns the robot server URL
func (c *Config) GetServerURL() string {
	return c.ServerURL
}

// GetAPIPath returns the chat-robot API prefix
func (c *Config) GetAPIPath() string {
	return c.APIPath
}

// GetDHAPIPath returns the digital-human API prefix
func (c *Config) GetDHAPIPath() string {
	return c.DHAPIPath
}

// GetStreamPath returns the WebSocket endpoint path
func (c *Config) GetStreamPath() string {
	return c.StreamPath
}

// GetToken returns the validation token
// Environment variables are already expanded during LoadConfig()
func (c *Config) GetToken() string {
	return c.Token
}

// RequireToken returns the token or an error telling the user how to set it
func (c *Config) RequireToken() (string, error) {
	if c.Token == "" {
		return "", fmt.Errorf("validation token is not configured. Set it in config file (token), environment variable (CHATCONSOLE_TOKEN) or run 'chatconsole login'")
	}
	return c.Token, nil
}

func (c *Config) GetSubmitViaAPI() bool {
	return c.SubmitViaAPI
}

func (c *Config) GetRequestTimeout() time.Duration {
	return c.requestTimeout
}

func (c *Config) GetPollBaseDelay() time.Duration {
	return c.pollBaseDelay
}

func (c *Config) GetPollMaxDelay() time.Duration {
	return c.pollMaxDelay
}

func (c *Config) GetReconnectBaseDelay() time.Duration {
	return c.reconnectBaseDelay
}

func (c *Config) GetReconnectMaxDelay() time.Duration {
	return c.reconnectMaxDelay
}

// ResolvePath converts a relative path to absolute path if needed
func ResolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}

	// Get config file directory as base directory
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		// If no config file is used, fall back to current working directory
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error getting current working directory: %w", err)
		}
		return filepath.Join(cwd, path), nil
	}

	configDir := filepath.Dir(configFile)
	if !filepath.IsAbs(configDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error getting current working directory: %w", err)
		}
		configDir = filepath.Join(cwd, configDir)
	}

	return filepath.Join(configDir, path), nil
}
