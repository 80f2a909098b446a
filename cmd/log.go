package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/longkey1/chatconsole/internal/console"
)

// logCmd represents the log command
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Read the robot log and toggle detector logging",
}

var logShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the last lines of the robot log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, _ := cmd.Flags().GetInt("lines")
		_, api, err := loadBackend()
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		ctx, cancel := signalContext()
		defer cancel()

		text, err := api.ReadLog(ctx, lines)
		if err != nil {
			return fmt.Errorf("reading log: %w", err)
		}
		fmt.Println(text)
		return nil
	},
}

var logOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable detector logging",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, console.ControlLogOn)
	},
}

var logOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable detector logging",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, console.ControlLogOff)
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logShowCmd, logOnCmd, logOffCmd)
	logShowCmd.Flags().IntP("lines", "n", 200, "Number of lines to read")
}
