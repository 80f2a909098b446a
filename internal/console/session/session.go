package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/longkey1/chatconsole/internal/console"
)

// Session is a saved transcript of a console run
type Session struct {
	ID        string            `json:"id"`     // UUID v4 (e.g., "550e8400-e29b-41d4-a716-446655440000")
	Name      string            `json:"name"`   // Optional session name (empty by default)
	Server    string            `json:"server"` // Robot server URL the transcript came from
	Cursor    string            `json:"cursor"` // Last id received by the fallback poll
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Messages  []console.Message `json:"messages"`
}

// NewSession creates an empty session for server
func NewSession(server string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		Server:    server,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []console.Message{},
	}
}

// Capture replaces the stored transcript with a snapshot of the client
func (s *Session) Capture(c *console.Client) {
	s.Messages = c.Transcript()
	s.Cursor = c.Cursor()
	s.UpdatedAt = time.Now()
}

// GetShortID returns the shortened session ID (first 8 characters)
func (s *Session) GetShortID() string {
	if len(s.ID) >= 8 {
		return s.ID[:8]
	}
	return s.ID
}

// GetDisplayName returns the name if set, otherwise the short ID
func (s *Session) GetDisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.GetShortID()
}

// MessageCount returns the number of messages in the session
func (s *Session) MessageCount() int {
	return len(s.Messages)
}
