package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/longkey1/chatconsole/internal/console"
)

// feedbackCmd represents the feedback command
var feedbackCmd = &cobra.Command{
	Use:   "feedback <message-id>",
	Short: "Report whether a robot answer was useful",
	Long: `Report whether the robot answer with the given message id was useful.
Answers are reported as not useful unless --useful is given.
Message ids are shown by 'chatconsole history --ids'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		useful, _ := cmd.Flags().GetBool("useful")
		_, api, err := loadBackend()
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		ctx, cancel := signalContext()
		defer cancel()

		view := console.NewLineView(io.Discard, os.Stderr)
		if err := oneShot(api, view).SubmitFeedback(ctx, args[0], useful); err != nil {
			return fmt.Errorf("sending feedback: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
	feedbackCmd.Flags().Bool("useful", false, "Mark the answer as useful")
}
