// Package console provides the client-side session of the robot console.
// It owns the conversation transcript, relays user actions to the backend
// through the API interface and folds pushed events back into the transcript.
//
// Example usage:
//
//	client := console.NewClient(api,
//		console.WithRenderer(renderer),
//		console.WithView(view),
//		console.WithNotifier(view),
//	)
//	err := client.SubmitChatText(ctx, "what time is it")
package console

import (
	"context"
	"fmt"
	"strings"
)

// API is the subset of the backend used by the client session.
// backend.Client implements it.
type API interface {
	// SubmitChat sends a text query tagged with the local message id.
	SubmitChat(ctx context.Context, query, messageID string) (Ack, error)

	// Control triggers a robot control action.
	Control(ctx context.Context, kind ControlKind) (Ack, error)

	// Feedback reports whether the answer with the given id was useful.
	Feedback(ctx context.Context, messageID string, useful bool) (Ack, error)

	// PollUpdates long-polls for messages after cursor.
	PollUpdates(ctx context.Context, cursor string) ([]Event, error)

	// History returns the complete conversation history kept by the backend.
	History(ctx context.Context) ([]Event, error)
}

// Ack is a successful backend reply.
type Ack struct {
	Message string // server-provided message ("ok", "success", ...)
	Data    string // textual payload, if any
	Empty   bool   // the server answered with an empty body
}

// Renderer turns accumulated message text into formatted markup.
type Renderer interface {
	Render(text string) (string, error)
}

// View reflects transcript changes.
type View interface {
	MessageAdded(msg Message)
	MessageUpdated(msg Message)
}

// ControlKind names a robot control action. The value is the endpoint segment.
type ControlKind string

const (
	ControlWake      ControlKind = "wakeup"
	ControlSleep     ControlKind = "sleep"
	ControlInterrupt ControlKind = "interrupt"
	ControlAskAgain  ControlKind = "interrupt-wakeup"
	ControlCommit    ControlKind = "commit-query"
	ControlLogOn     ControlKind = "log-on"
	ControlLogOff    ControlKind = "log-off"
)

var controlNames = map[string]ControlKind{
	"wake":      ControlWake,
	"wakeup":    ControlWake,
	"sleep":     ControlSleep,
	"interrupt": ControlInterrupt,
	"ask-again": ControlAskAgain,
	"commit":    ControlCommit,
	"log-on":    ControlLogOn,
	"log-off":   ControlLogOff,
}

// ParseControlKind maps a user-facing action name to its ControlKind.
func ParseControlKind(name string) (ControlKind, error) {
	kind, ok := controlNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown control action: %s (expected one of wake, sleep, interrupt, ask-again, commit, log-on, log-off)", name)
	}
	return kind, nil
}

// Title returns the short label used in notices.
func (k ControlKind) Title() string {
	switch k {
	case ControlWake:
		return "Wake up"
	case ControlSleep:
		return "Sleep"
	case ControlInterrupt:
		return "Interrupt"
	case ControlAskAgain:
		return "Ask again"
	case ControlCommit:
		return "Commit query"
	case ControlLogOn:
		return "Detector log on"
	case ControlLogOff:
		return "Detector log off"
	default:
		return string(k)
	}
}

// IsLogToggle reports whether the action belongs to the detector endpoints.
func (k ControlKind) IsLogToggle() bool {
	return k == ControlLogOn || k == ControlLogOff
}

// Valid reports whether k is a known action.
func (k ControlKind) Valid() bool {
	for _, known := range controlNames {
		if known == k {
			return true
		}
	}
	return false
}
