package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/longkey1/chatconsole/internal/console"
	"github.com/longkey1/chatconsole/internal/tui"
)

// consoleCmd represents the console command
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive chat console",
	Long: `Open a full-screen console showing the conversation with the robot.

Keys:
  enter   send the query
  ctrl+w  wake up        ctrl+s  sleep
  ctrl+x  interrupt      ctrl+r  ask again
  ctrl+f  mark the last answer as not useful
  esc     cancel requests in flight
  ctrl+c  quit

When stdout is not a terminal this behaves like 'chatconsole watch'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return watchCmd.RunE(cmd, args)
		}

		cfg, api, err := loadBackend()
		if err != nil {
			return err
		}
		renderer, err := newRenderer(cfg, 100)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		// stderr belongs to the alt screen now
		log.Logger = log.Logger.Output(io.Discard)

		ctx, cancel := signalContext()
		defer cancel()

		bridge := &tui.Bridge{}
		client := console.NewClient(api,
			console.WithRenderer(renderer),
			console.WithView(bridge),
			console.WithNotifier(bridge),
			console.WithSubmitObserver(bridge.SubmitState),
			console.WithRetryObserver(bridge.RetryState),
			console.WithPollDelays(cfg.GetPollBaseDelay(), cfg.GetPollMaxDelay()),
		)

		model := tui.New(ctx, client, tui.Options{Title: cfg.GetServerURL(), Hydrate: true})
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		bridge.Attach(p)

		return follow(ctx, cfg, client, bridge.StreamState, func(context.Context) error {
			defer cancel()
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("running console: %w", err)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
