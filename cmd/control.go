package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/longkey1/chatconsole/internal/console"
)

// controlCommands maps each robot control action to its command
var controlCommands = []struct {
	use   string
	short string
	kind  console.ControlKind
}{
	{"wake", "Wake the robot up", console.ControlWake},
	{"sleep", "Put the robot to sleep", console.ControlSleep},
	{"interrupt", "Interrupt the robot's current answer", console.ControlInterrupt},
	{"ask-again", "Interrupt and wake the robot so it listens again", console.ControlAskAgain},
	{"commit", "Commit the pending spoken query", console.ControlCommit},
}

func newControlCmd(use, short string, kind console.ControlKind) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runControl(cmd, kind)
		},
	}
}

func runControl(cmd *cobra.Command, kind console.ControlKind) error {
	_, api, err := loadBackend()
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	ctx, cancel := signalContext()
	defer cancel()

	view := console.NewLineView(io.Discard, os.Stderr)
	if err := oneShot(api, view).ControlAction(ctx, kind); err != nil {
		return fmt.Errorf("%s: %w", kind.Title(), err)
	}
	return nil
}

func init() {
	for _, c := range controlCommands {
		rootCmd.AddCommand(newControlCmd(c.use, c.short, c.kind))
	}
}
