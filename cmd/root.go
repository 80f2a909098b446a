/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/longkey1/chatconsole/internal/config"
)

var (
	cfgFile  string
	verbose  bool
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chatconsole",
	Short: "A terminal console for the chat robot",
	Long: `chatconsole is a command-line console for a voice/chat robot backend.
It sends queries, triggers control actions (wake, sleep, interrupt), follows the
robot's event stream and manages digital-human sessions.
You can configure the tool using a TOML configuration file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/chatconsole/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
}

// setupLogging configures the global zerolog logger on stderr
func setupLogging() error {
	level := logLevel
	if level == "" {
		level = viper.GetString("log_level")
	}
	if verbose {
		level = "debug"
	}
	if level == "" {
		level = "warn"
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(l)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	return nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("CHATCONSOLE")
	viper.AutomaticEnv()

	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	userConfigDir := filepath.Join(home, ".config", "chatconsole")

	// Later directories in the array take precedence over earlier ones
	defaultPromptDirs := []string{
		"/usr/share/chatconsole/prompts",
		"/usr/local/share/chatconsole/prompts",
		filepath.Join(userConfigDir, "prompts"),
	}
	defaultConfig := config.NewDefaultConfig(filepath.Join(userConfigDir, "prompts"))

	viper.SetDefault("server_url", defaultConfig.ServerURL)
	viper.SetDefault("api_path", defaultConfig.APIPath)
	viper.SetDefault("dh_api_path", defaultConfig.DHAPIPath)
	viper.SetDefault("stream_path", defaultConfig.StreamPath)
	viper.SetDefault("token", defaultConfig.Token)
	viper.SetDefault("username", defaultConfig.Username)
	viper.SetDefault("submit_via_api", defaultConfig.SubmitViaAPI)
	viper.SetDefault("request_timeout", defaultConfig.RequestTimeout)
	viper.SetDefault("poll_base_delay", defaultConfig.PollBaseDelay)
	viper.SetDefault("poll_max_delay", defaultConfig.PollMaxDelay)
	viper.SetDefault("reconnect_base_delay", defaultConfig.ReconnectBaseDelay)
	viper.SetDefault("reconnect_max_delay", defaultConfig.ReconnectMaxDelay)
	viper.SetDefault("renderer", defaultConfig.Renderer)
	viper.SetDefault("render_style", defaultConfig.RenderStyle)
	viper.SetDefault("prompt_dirs", defaultPromptDirs)
	viper.SetDefault("log_level", defaultConfig.LogLevel)
	viper.SetDefault("session_retention_days", defaultConfig.SessionRetentionDays)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	} else {
		// Load system-wide config first (lower priority)
		for _, path := range []string{"/etc/chatconsole", "/usr/local/etc/chatconsole"} {
			viper.AddConfigPath(path)
		}
		viper.SetConfigType("toml")
		viper.SetConfigName("config")

		systemConfigLoaded := false
		if err := viper.ReadInConfig(); err == nil {
			systemConfigLoaded = true
			if verbose {
				fmt.Fprintln(os.Stderr, "Loaded system-wide config:", viper.ConfigFileUsed())
			}
		}

		// Load user config (higher priority) - merge with system config
		viper.AddConfigPath(userConfigDir)
		if systemConfigLoaded {
			if err := viper.MergeInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error merging user config file: %v\n", err)
				}
			}
		} else if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			}
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		fmt.Fprintln(os.Stderr, "  CHATCONSOLE_SERVER_URL:", viper.GetString("server_url"))
		fmt.Fprintln(os.Stderr, "  CHATCONSOLE_API_PATH:", viper.GetString("api_path"))
		fmt.Fprintln(os.Stderr, "  CHATCONSOLE_PROMPT_DIRS:", viper.GetStringSlice("prompt_dirs"))
	}
}
