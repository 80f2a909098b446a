package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/longkey1/chatconsole/internal/config"
	"github.com/longkey1/chatconsole/internal/console"
	"github.com/longkey1/chatconsole/internal/console/session"
)

const saveInterval = 10 * time.Second

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the robot conversation on stdout",
	Long: `Print the conversation as it happens. Messages arrive on the event stream;
a fallback poll picks up anything the stream missed. Stop with Ctrl+C.

With --save the transcript is stored as a session that can be listed with
'chatconsole sessions list' and continued with --resume.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		save, _ := cmd.Flags().GetBool("save")
		resume, _ := cmd.Flags().GetString("resume")
		noHistory, _ := cmd.Flags().GetBool("no-history")

		cfg, api, err := loadBackend()
		if err != nil {
			return err
		}
		renderer, err := newRenderer(cfg, 100)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		view := console.NewLineView(os.Stdout, os.Stderr)
		defer view.Close()

		opts := []console.Option{
			console.WithRenderer(renderer),
			console.WithView(view),
			console.WithNotifier(view),
			console.WithPollDelays(cfg.GetPollBaseDelay(), cfg.GetPollMaxDelay()),
		}

		store, err := session.DefaultStore()
		if err != nil {
			return err
		}
		var sess *session.Session
		if resume != "" {
			sess, err = store.Find(resume, cfg.GetServerURL())
			if err != nil {
				return fmt.Errorf("finding session: %w", err)
			}
			for _, m := range sess.Messages {
				view.MessageAdded(m)
			}
			opts = append(opts, console.WithTranscript(sess.Messages, sess.Cursor))
			save = true
		} else if save {
			sess = session.NewSession(cfg.GetServerURL())
		}

		ctx, cancel := signalContext()
		defer cancel()

		client := console.NewClient(api, opts...)
		return follow(ctx, cfg, client, nil, func(ctx context.Context) error {
			if !noHistory {
				// failures are already reported as notices
				_, _ = client.Hydrate(ctx)
			}
			if sess == nil {
				<-ctx.Done()
				return nil
			}
			return autosave(ctx, store, client, sess)
		})
	},
}

// follow runs the event stream, the fallback poll and extra under one
// errgroup until ctx is cancelled.
func follow(ctx context.Context, cfg *config.Config, client *console.Client, onState func(bool), extra func(context.Context) error) error {
	st, err := newStream(cfg, func(connected bool) {
		log.Info().Bool("connected", connected).Msg("event stream")
		if onState != nil {
			onState(connected)
		}
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return st.Run(gctx, client.OnStreamEvent) })
	g.Go(func() error { return client.PollFallback(gctx) })
	if extra != nil {
		g.Go(func() error { return extra(gctx) })
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// autosave writes sess every saveInterval and once more when ctx ends
func autosave(ctx context.Context, store *session.Store, client *console.Client, sess *session.Session) error {
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()
	flush := func() error {
		sess.Capture(client)
		if err := store.Save(sess); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		log.Debug().Str("session", sess.ID).Int("messages", sess.MessageCount()).Msg("session saved")
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			if err := flush(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Session saved: %s\n", sess.GetShortID())
			return nil
		case <-ticker.C:
			if err := flush(); err != nil {
				return err
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("save", false, "Save the transcript as a session")
	watchCmd.Flags().String("resume", "", "Continue a saved session of this server (name, short ID, full UUID, or \"latest\")")
	watchCmd.Flags().Bool("no-history", false, "Do not load the backend history on start")
}
