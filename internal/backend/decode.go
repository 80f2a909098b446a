package backend

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/longkey1/chatconsole/internal/console"
)

// decodeHistory accepts the history field either as a JSON array or as a
// string holding a JSON-encoded array (what the server actually sends).
func decodeHistory(raw json.RawMessage) ([]console.Event, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, errors.Wrap(err, "decoding history string")
		}
		if inner == "" {
			return nil, nil
		}
		raw = json.RawMessage(inner)
	}
	var events []console.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, errors.Wrap(err, "decoding history")
	}
	return events, nil
}

// dataText renders a data payload as text: strings verbatim, anything else
// as indented JSON.
func dataText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
