package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Latest refers to the most recently updated session.
const Latest = "latest"

const minPrefixLen = 4

// AmbiguousIDError is returned when a reference matches several sessions
type AmbiguousIDError struct {
	Ref     string
	Matches []Session
}

func (e *AmbiguousIDError) Error() string {
	ids := make([]string, 0, len(e.Matches))
	for _, m := range e.Matches {
		ids = append(ids, m.GetShortID()+" ("+m.Server+")")
	}
	return fmt.Sprintf("ambiguous session %q matches %s; use a longer prefix", e.Ref, strings.Join(ids, ", "))
}

// Store keeps saved transcripts as one JSON file per session in Dir.
type Store struct {
	Dir string
}

// DefaultStore stores sessions in a "sessions" directory next to the config
// file in use, or in $HOME/.config/chatconsole/sessions.
func DefaultStore() (*Store, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		dir, err := filepath.Abs(filepath.Dir(configFile))
		if err != nil {
			return nil, fmt.Errorf("resolving config directory: %w", err)
		}
		return &Store{Dir: filepath.Join(dir, "sessions")}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return &Store{Dir: filepath.Join(home, ".config", "chatconsole", "sessions")}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.Dir, id+".json")
}

// Save writes sess, replacing any previous snapshot atomically.
func (s *Store) Save(sess *Session) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	tmp := s.path(sess.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path(sess.ID)); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load reads the session with the full id.
func (s *Store) Load(id string) (*Session, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session %s is corrupted: %w", id, err)
	}
	return &sess, nil
}

// Delete removes the session with the full id.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("session not found: %s", id)
		}
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns the sessions recorded against server, or all sessions when
// server is empty, newest update first. Unreadable files are skipped.
func (s *Store) List(server string) ([]Session, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	server = normalizeServer(server)
	var sessions []Session
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sess, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		if server != "" && normalizeServer(sess.Server) != server {
			continue
		}
		sessions = append(sessions, *sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// Find resolves ref among the sessions of server (all servers when empty).
// ref is "latest", a session name, a full UUID or an id prefix of at least
// four characters.
func (s *Store) Find(ref, server string) (*Session, error) {
	sessions, err := s.List(server)
	if err != nil {
		return nil, err
	}
	if ref == Latest {
		if len(sessions) == 0 {
			return nil, fmt.Errorf("no sessions found; record one with: chatconsole watch --save")
		}
		return &sessions[0], nil
	}

	var byName, byID []Session
	for _, sess := range sessions {
		switch {
		case sess.ID == ref:
			return &sess, nil
		case sess.Name != "" && sess.Name == ref:
			byName = append(byName, sess)
		case len(ref) >= minPrefixLen && strings.HasPrefix(sess.ID, ref):
			byID = append(byID, sess)
		}
	}
	matches := byName
	if len(matches) == 0 {
		matches = byID
	}
	switch len(matches) {
	case 0:
		if len(ref) < minPrefixLen {
			return nil, fmt.Errorf("session ID prefix must be at least %d characters (got %d)", minPrefixLen, len(ref))
		}
		return nil, fmt.Errorf("session not found: %s", ref)
	case 1:
		return &matches[0], nil
	default:
		return nil, &AmbiguousIDError{Ref: ref, Matches: matches}
	}
}

// normalizeServer makes URLs that differ only in case or a trailing slash compare equal
func normalizeServer(u string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(u)), "/")
}

// CreatedBefore filters sessions created before t
func CreatedBefore(sessions []Session, t time.Time) []Session {
	var out []Session
	for _, sess := range sessions {
		if sess.CreatedAt.Before(t) {
			out = append(out, sess)
		}
	}
	return out
}

// RetentionCutoff returns the creation time before which sessions expire.
// ok is false when retention is disabled (days <= 0).
func RetentionCutoff(now time.Time, days int) (cutoff time.Time, ok bool) {
	if days <= 0 {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, -days), true
}

// ParseDate accepts YYYY-MM-DD, YYYY-MM or YYYY
func ParseDate(dateStr string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD, YYYY-MM, or YYYY)", dateStr)
}
