package backend

import (
	"fmt"
)

// TransportError reports a failure to get a usable reply: the request did
// not complete, the status was not 2xx, or the body could not be decoded.
type TransportError struct {
	Op         string // "POST /chat"
	StatusCode int    // 0 when the request never completed
	Message    string // server message from an error body, if any
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport failure"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerMessage returns the text to show the user.
func (e *TransportError) ServerMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "server error"
}

// APIError is a reply that decoded fine but carries a non-zero code.
type APIError struct {
	Op      string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: code %d: %s", e.Op, e.Code, e.Message)
}

// ServerMessage returns the text to show the user.
func (e *APIError) ServerMessage() string {
	return e.Message
}
