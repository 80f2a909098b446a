package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name+".toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestProcessArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]string
		wantErr bool
	}{
		{"empty", nil, map[string]string{}, false},
		{"simple", []string{"room:kitchen"}, map[string]string{"room": "kitchen"}, false},
		{"quoted", []string{`"time:10:30"`}, map[string]string{"time": "10:30"}, false},
		{"escaped", []string{`say:a\"b`}, map[string]string{"say": `a"b`}, false},
		{"missing colon", []string{"room"}, nil, true},
		{"empty key", []string{":x"}, nil, true},
		{"reserved", []string{"input:x"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := processArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMessage(t *testing.T) {
	low := t.TempDir()
	high := t.TempDir()
	writePrompt(t, low, "lights", `query = "turn off the lights"`)
	writePrompt(t, high, "lights", `query = "turn {{state}} the lights in the {{room}}: {{input}}"`)
	writePrompt(t, low, "empty", `description = "no query"`)

	tests := []struct {
		name    string
		message string
		prompt  string
		args    []string
		want    string
		wantErr bool
	}{
		{"no prompt", "hello", "", nil, "hello", false},
		{"later dir wins", "now", "lights", []string{"state:on", "room:kitchen"}, "turn on the lights in the kitchen: now", false},
		{"with extension", "now", "lights.toml", []string{"state:off", "room:hall"}, "turn off the lights in the hall: now", false},
		{"missing", "x", "nope", nil, "", true},
		{"no query", "x", "empty", nil, "", true},
		{"bad args", "x", "lights", []string{"broken"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatMessage(tt.message, tt.prompt, []string{low, high}, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListPrompts(t *testing.T) {
	low := t.TempDir()
	high := t.TempDir()
	writePrompt(t, low, "greet", `query = "hi"`)
	writePrompt(t, low, "home/lights", `query = "lights"`)
	writePrompt(t, high, "greet", `query = "hello"`)
	require.NoError(t, os.WriteFile(filepath.Join(high, "notes.txt"), []byte("x"), 0644))

	entries, err := ListPrompts([]string{low, high, filepath.Join(low, "missing")})
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Name: "greet", Dir: high},
		{Name: "home/lights", Dir: low},
	}, entries)
}
