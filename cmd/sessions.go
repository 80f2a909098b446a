package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/longkey1/chatconsole/internal/config"
	"github.com/longkey1/chatconsole/internal/console"
	"github.com/longkey1/chatconsole/internal/console/session"
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved transcripts",
	Long: `Manage transcripts saved by 'chatconsole watch --save', including listing,
viewing, renaming and deleting them.

A saved transcript can be resumed with 'chatconsole watch --resume <id>'.`,
}

// sessionsListCmd represents the sessions list command
var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Long:  `List all saved transcripts sorted by most recently updated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, _ := cmd.Flags().GetString("server")
		store, err := session.DefaultStore()
		if err != nil {
			return err
		}
		sessions, err := store.List(server)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			fmt.Println("\nSave a transcript with:")
			fmt.Println("  chatconsole watch --save")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSERVER\tCREATED\tUPDATED\tMESSAGES\tNAME")
		fmt.Fprintln(w, "--\t------\t-------\t-------\t--------\t----")
		for _, sess := range sessions {
			name := sess.Name
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				sess.GetShortID(),
				sess.Server,
				sess.CreatedAt.Format("2006-01-02"),
				humanize.Time(sess.UpdatedAt),
				sess.MessageCount(),
				name,
			)
		}
		w.Flush()

		fmt.Println("\nUse 'chatconsole sessions show <id>' to view session details.")
		return nil
	},
}

// sessionsShowCmd represents the sessions show command
var sessionsShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show session details and transcript",
	Long: `Show detailed information about a session including all messages.

The reference can be a session name, a short ID (minimum 4 characters), a full UUID, or "latest" for the most recent session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.DefaultStore()
		if err != nil {
			return err
		}
		sess, err := store.Find(args[0], "")
		if err != nil {
			return fmt.Errorf("finding session: %w", err)
		}

		fmt.Printf("Session: %s\n", sess.ID)
		if sess.Name != "" {
			fmt.Printf("Name: %s\n", sess.Name)
		}
		fmt.Printf("Server: %s\n", sess.Server)
		fmt.Printf("Created: %s\n", sess.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated: %s\n", sess.UpdatedAt.Format("2006-01-02 15:04:05"))
		if sess.Cursor != "" {
			fmt.Printf("Cursor: %s\n", sess.Cursor)
		}
		fmt.Printf("Messages: %d\n", sess.MessageCount())
		fmt.Println()

		if len(sess.Messages) == 0 {
			fmt.Println("No messages in this session.")
			return nil
		}

		fmt.Println("Transcript:")
		fmt.Println("-----------")
		for i, msg := range sess.Messages {
			roleLabel := "You"
			if msg.Direction == console.Incoming {
				roleLabel = "Robot"
			}
			fmt.Printf("\n[%d] %s (%s):\n%s\n",
				i+1,
				roleLabel,
				msg.CreatedAt.Format(time.DateTime),
				msg.Text,
			)
		}

		fmt.Printf("\nResume this session with:\n  chatconsole watch --resume %s\n", sess.GetShortID())
		return nil
	},
}

// sessionsDeleteCmd represents the sessions delete command
var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <ref>",
	Short: "Delete a session",
	Long: `Delete a saved transcript permanently.

The reference can be a session name, a short ID (minimum 4 characters), a full UUID, or "latest" for the most recent session.

Warning: This action cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.DefaultStore()
		if err != nil {
			return err
		}
		sess, err := store.Find(args[0], "")
		if err != nil {
			return fmt.Errorf("finding session: %w", err)
		}

		fmt.Printf("Are you sure you want to delete session %s? [y/N]: ", sess.GetShortID())
		if !confirmed() {
			fmt.Println("Deletion cancelled.")
			return nil
		}

		if err := store.Delete(sess.ID); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}

		fmt.Printf("Session %s deleted successfully.\n", sess.GetShortID())
		return nil
	},
}

// sessionsRenameCmd represents the sessions rename command
var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <ref> <name>",
	Short: "Rename a session",
	Long: `Rename a saved transcript.

The reference can be a session name, a short ID (minimum 4 characters), a full UUID, or "latest" for the most recent session.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.DefaultStore()
		if err != nil {
			return err
		}
		sess, err := store.Find(args[0], "")
		if err != nil {
			return fmt.Errorf("finding session: %w", err)
		}

		sess.Name = args[1]
		if err := store.Save(sess); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}

		fmt.Printf("Session %s renamed to \"%s\".\n", sess.GetShortID(), sess.Name)
		return nil
	},
}

// sessionsCleanCmd represents the sessions clean command
var sessionsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete old sessions",
	Long: `Delete old transcripts permanently.

By default, deletes sessions created more than session_retention_days days ago.
Use --before to specify a different date, or --all to delete all sessions.

Warning: This action cannot be undone.

Examples:
  chatconsole sessions clean                      # Delete sessions older than the retention period
  chatconsole sessions clean --before 2024-01-01  # Delete sessions created before 2024-01-01
  chatconsole sessions clean --before 2024-12     # Delete sessions created before 2024-12-01
  chatconsole sessions clean --all                # Delete all sessions`,
	RunE: func(cmd *cobra.Command, args []string) error {
		beforeDateStr, _ := cmd.Flags().GetString("before")
		deleteAll, _ := cmd.Flags().GetBool("all")
		skipConfirm, _ := cmd.Flags().GetBool("yes")

		store, err := session.DefaultStore()
		if err != nil {
			return err
		}
		sessions, err := store.List("")
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions to delete.")
			return nil
		}

		var (
			toDelete []session.Session
			question string
		)
		switch {
		case deleteAll:
			toDelete = sessions
			question = fmt.Sprintf("Are you sure you want to delete all %d sessions? [y/N]: ", len(toDelete))
		case beforeDateStr != "":
			beforeDate, err := session.ParseDate(beforeDateStr)
			if err != nil {
				return fmt.Errorf("parsing date: %w", err)
			}
			toDelete = session.CreatedBefore(sessions, beforeDate)
			if len(toDelete) == 0 {
				fmt.Printf("No sessions found created before %s.\n", beforeDate.Format("2006-01-02"))
				return nil
			}
			question = fmt.Sprintf("Are you sure you want to delete %d sessions created before %s? [y/N]: ",
				len(toDelete), beforeDate.Format("2006-01-02"))
		default:
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			beforeDate, ok := session.RetentionCutoff(time.Now(), cfg.SessionRetentionDays)
			if !ok {
				fmt.Println("Session retention is disabled (session_retention_days = 0). Use --before or --all.")
				return nil
			}
			toDelete = session.CreatedBefore(sessions, beforeDate)
			if len(toDelete) == 0 {
				fmt.Printf("No sessions found created before %s.\n", beforeDate.Format("2006-01-02"))
				return nil
			}
			question = fmt.Sprintf("Are you sure you want to delete %d sessions older than %d days (created before %s)? [y/N]: ",
				len(toDelete), cfg.SessionRetentionDays, beforeDate.Format("2006-01-02"))
		}

		if !skipConfirm {
			fmt.Print(question)
			if !confirmed() {
				fmt.Println("Deletion cancelled.")
				return nil
			}
		}

		deleted := 0
		failed := 0
		for _, sess := range toDelete {
			if err := store.Delete(sess.ID); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to delete session %s: %v\n", sess.GetShortID(), err)
				failed++
			} else {
				deleted++
			}
		}

		fmt.Printf("Successfully deleted %d sessions", deleted)
		if failed > 0 {
			fmt.Printf(" (%d failed)", failed)
		}
		fmt.Println(".")
		return nil
	},
}

// confirmed reads a y/N answer from stdin
func confirmed() bool {
	var response string
	fmt.Scanln(&response)
	return response == "y" || response == "Y"
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsRenameCmd)
	sessionsCmd.AddCommand(sessionsCleanCmd)

	sessionsListCmd.Flags().String("server", "", "Only list sessions recorded against this server URL")
	sessionsCleanCmd.Flags().String("before", "", "Delete sessions created before this date (YYYY-MM-DD, YYYY-MM, or YYYY)")
	sessionsCleanCmd.Flags().Bool("all", false, "Delete all sessions")
	sessionsCleanCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
