package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/longkey1/chatconsole/internal/config"
)

const configFields = "configfile, server_url, api_path, dh_api_path, stream_path, token, username, submit_via_api, request_timeout, poll_base_delay, poll_max_delay, reconnect_base_delay, reconnect_max_delay, renderer, render_style, promptdirs, log_level, session_retention_days"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows all configuration values loaded from the config file and environment variables.

If a field name is specified, only that field's value is displayed.
Available fields: ` + configFields + `

Examples:
  chatconsole config                # Show all configuration
  chatconsole config server_url     # Show only the server URL
  chatconsole config token          # Show the masked validation token`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		values := configValues(cfg)
		if len(args) > 0 {
			field := strings.ToLower(args[0])
			for _, kv := range values {
				if kv[0] == field {
					fmt.Println(kv[1])
					return nil
				}
			}
			return fmt.Errorf("unknown field: %s\nAvailable fields: %s", args[0], configFields)
		}

		for _, kv := range values {
			fmt.Printf("%s: %s\n", kv[0], kv[1])
		}
		return nil
	},
}

func configValues(cfg *config.Config) [][2]string {
	return [][2]string{
		{"configfile", viper.ConfigFileUsed()},
		{"server_url", cfg.ServerURL},
		{"api_path", cfg.APIPath},
		{"dh_api_path", cfg.DHAPIPath},
		{"stream_path", cfg.StreamPath},
		{"token", maskToken(cfg.Token)},
		{"username", cfg.Username},
		{"submit_via_api", fmt.Sprint(cfg.SubmitViaAPI)},
		{"request_timeout", cfg.GetRequestTimeout().String()},
		{"poll_base_delay", cfg.GetPollBaseDelay().String()},
		{"poll_max_delay", cfg.GetPollMaxDelay().String()},
		{"reconnect_base_delay", cfg.GetReconnectBaseDelay().String()},
		{"reconnect_max_delay", cfg.GetReconnectMaxDelay().String()},
		{"renderer", cfg.Renderer},
		{"render_style", cfg.RenderStyle},
		{"promptdirs", strings.Join(cfg.PromptDirs, ",")},
		{"log_level", cfg.LogLevel},
		{"session_retention_days", fmt.Sprint(cfg.SessionRetentionDays)},
	}
}

// maskToken returns a masked version of the token for security
func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
}
