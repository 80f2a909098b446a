package console

import (
	"encoding/json"
	"time"
)

// Direction tells who authored a message.
type Direction int

const (
	Outgoing Direction = 0 // typed or spoken by the user
	Incoming Direction = 1 // produced by the robot
)

func (d Direction) String() string {
	if d == Outgoing {
		return "outgoing"
	}
	return "incoming"
}

// Message is one transcript entry. Text accumulates streamed tokens and
// Markup is re-rendered from the whole Text after every amendment.
type Message struct {
	ID           string    `json:"id"`
	Direction    Direction `json:"direction"`
	Text         string    `json:"text"`
	Label        string    `json:"label,omitempty"`  // plugin that produced the answer
	Markup       string    `json:"markup,omitempty"` // rendered Text
	FeedbackSent bool      `json:"feedback_sent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Display returns the rendered markup, or the raw text when nothing was rendered.
func (m Message) Display() string {
	if m.Markup != "" {
		return m.Markup
	}
	return m.Text
}

// Action is the kind of a push frame.
type Action string

const (
	ActionNewMessage  Action = "new_message"
	ActionUserSpeak   Action = "user_speak"
	ActionRobotWakeup Action = "robot_weakup" // spelled as the server sends it
	ActionRobotListen Action = "robot_listen"
	ActionRobotThink  Action = "robot_think"
	ActionRobotWrite  Action = "robot_write"
	ActionRobotSpeak  Action = "robot_speak"
	ActionRobotSleep  Action = "robot_sleep"
)

// Conversational reports whether frames of this action carry transcript text.
func (a Action) Conversational() bool {
	switch a {
	case ActionNewMessage, ActionUserSpeak, ActionRobotWakeup,
		ActionRobotListen, ActionRobotThink, ActionRobotWrite:
		return true
	}
	return false
}

// Event is a push frame from the event stream. History and poll entries share
// the same shape without an action.
type Event struct {
	Action Action          `json:"action,omitempty"`
	ID     string          `json:"uuid"`
	Text   string          `json:"text"`
	Type   *int            `json:"type,omitempty"`
	Plugin string          `json:"plugin,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Direction decodes the wire type code: 0 is the user, anything else (or no
// code at all) is the robot.
func (e Event) Direction() Direction {
	if e.Type != nil && *e.Type == int(Outgoing) {
		return Outgoing
	}
	return Incoming
}
