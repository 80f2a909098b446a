package console

import (
	"github.com/pkg/errors"
)

// Level is the severity of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a transient notification shown to the user.
type Notice struct {
	Level   Level
	Title   string
	Message string
}

// Notifier shows notices.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type discard struct{}

func (discard) Notify(Notice)          {}
func (discard) MessageAdded(Message)   {}
func (discard) MessageUpdated(Message) {}

// serverMessager is implemented by backend errors that carry a message meant
// for the user.
type serverMessager interface {
	ServerMessage() string
}

const serverErrorText = "server error"

// noticeText picks the text shown for a failed call.
func noticeText(err error) string {
	var sm serverMessager
	if errors.As(err, &sm) {
		if msg := sm.ServerMessage(); msg != "" {
			return msg
		}
	}
	return serverErrorText
}
