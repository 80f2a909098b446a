package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange credentials for a validation token",
	Long: `Log in to the robot's web API and print the validation token.
The username defaults to the configured one. The password is read from the
CHATCONSOLE_PASSWORD environment variable or from the first line of stdin.

Store the token with:
  export CHATCONSOLE_TOKEN=$(chatconsole login)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, api, err := loadBackend()
		if err != nil {
			return err
		}

		username, _ := cmd.Flags().GetString("username")
		if username == "" {
			username = cfg.Username
		}
		if username == "" {
			return fmt.Errorf("username is not set. Use --username or set username in the config file")
		}

		password := os.Getenv("CHATCONSOLE_PASSWORD")
		if password == "" {
			fmt.Fprint(os.Stderr, "Password: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		cmd.SilenceUsage = true
		ctx, cancel := signalContext()
		defer cancel()

		token, err := api.Login(ctx, username, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringP("username", "u", "", "Account name (default from config)")
}
