package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/longkey1/chatconsole/internal/console"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the conversation history kept by the robot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		withIDs, _ := cmd.Flags().GetBool("ids")

		cfg, api, err := loadBackend()
		if err != nil {
			return err
		}
		renderer, err := newRenderer(cfg, 100)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		ctx, cancel := signalContext()
		defer cancel()

		client := console.NewClient(api, console.WithRenderer(renderer))
		if _, err := client.Hydrate(ctx); err != nil {
			return fmt.Errorf("loading history: %w", err)
		}
		msgs := client.Transcript()

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(msgs)
		}
		if len(msgs) == 0 {
			fmt.Println("No messages.")
			return nil
		}
		for _, m := range msgs {
			who := "you"
			if m.Direction == console.Incoming {
				who = "robot"
			}
			if m.Label != "" {
				who += " [" + m.Label + "]"
			}
			if withIDs {
				who += " (" + m.ID + ")"
			}
			fmt.Printf("%s:\n%s\n", who, m.Display())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Bool("json", false, "Print messages as JSON")
	historyCmd.Flags().Bool("ids", false, "Show message ids")
}
