package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/longkey1/chatconsole/internal/backend"
)

// dhCmd represents the digital-human command
var dhCmd = &cobra.Command{
	Use:   "dh",
	Short: "Manage digital-human streaming sessions",
}

var dhCommands = []struct {
	use   string
	short string
	op    backend.DHOp
}{
	{"list", "List streaming sessions", backend.DHSessionList},
	{"status", "Show the current session status", backend.DHSessionStatus},
	{"info", "Show playback information", backend.DHPlayInfo},
	{"create", "Create a streaming session", backend.DHSessionCreate},
	{"open", "Open the streaming session", backend.DHSessionOpen},
	{"close", "Close the streaming session", backend.DHSessionClose},
	{"create-cmd", "Create the command channel", backend.DHCreateCmd},
}

func newDHCmd(use, short string, op backend.DHOp) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, err := loadBackend()
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			ctx, cancel := signalContext()
			defer cancel()

			ack, err := api.DigitalHuman(ctx, op)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			if ack.Data != "" {
				fmt.Println(ack.Data)
			}
			if ack.Message != "" {
				fmt.Fprintln(os.Stderr, ack.Message)
			}
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(dhCmd)
	for _, c := range dhCommands {
		dhCmd.AddCommand(newDHCmd(c.use, c.short, c.op))
	}
}
