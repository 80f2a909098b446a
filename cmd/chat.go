/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/longkey1/chatconsole/internal/console"
	promptpkg "github.com/longkey1/chatconsole/internal/console/prompt"
)

var (
	prompt    string
	argFlags  []string
	useEditor bool
	viaAPI    bool
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a query to the robot",
	Long: `Send a text query to the robot as if it had been typed in the console.
The robot's answer arrives on the event stream; use 'chatconsole watch' or
'chatconsole console' to follow it.

If no message is provided as an argument, it reads from stdin.
If --editor flag is set, it opens the default editor (from EDITOR environment variable) to compose the message.

The prompt file should be in TOML format with the following structure:
description = "Optional description"
query = "Query text with {{input}} and {{key}} placeholders"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, api, err := loadBackend()
		if err != nil {
			return err
		}
		if viaAPI {
			api.SetSubmitViaAPI(true)
		}

		var message string
		if useEditor {
			message, err = getMessageFromEditor()
			if err != nil {
				return fmt.Errorf("getting message from editor: %w", err)
			}
		} else if len(args) > 0 {
			message = strings.Join(args, " ")
		} else {
			input, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading from stdin: %w", err)
			}
			message = strings.TrimSpace(string(input))
		}

		message, err = promptpkg.FormatMessage(message, prompt, cfg.PromptDirs, argFlags)
		if err != nil {
			return fmt.Errorf("formatting message: %w", err)
		}

		cmd.SilenceUsage = true
		ctx, cancel := signalContext()
		defer cancel()

		view := console.NewLineView(io.Discard, os.Stderr)
		if err := oneShot(api, view).SubmitChatText(ctx, message); err != nil {
			return fmt.Errorf("sending query: %w", err)
		}
		return nil
	},
}

// getMessageFromEditor opens the user's editor and returns the saved text
func getMessageFromEditor() (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return "", fmt.Errorf("EDITOR environment variable is not set")
	}

	tmpFile, err := os.CreateTemp("", "chatconsole-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	cmd := exec.Command(editor, tmpFile.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to open editor: %w", err)
	}

	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited content: %w", err)
	}

	return strings.TrimSpace(string(content)), nil
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Name of the prompt template (without .toml extension)")
	chatCmd.Flags().StringArrayVar(&argFlags, "arg", []string{}, "Key-value pairs for prompt template (format: key:value)")
	chatCmd.Flags().BoolVarP(&useEditor, "editor", "e", false, "Use default editor (from EDITOR environment variable) to compose message")
	chatCmd.Flags().BoolVar(&viaAPI, "api", false, "Submit through the JSON send-query endpoint instead of the console form")
}
