package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Prompt represents the structure of a TOML prompt file
type Prompt struct {
	Description string `toml:"description"`
	Query       string `toml:"query"` // query text with {{input}} and {{key}} placeholders
}

// LoadPrompt loads a prompt file and returns its contents
func LoadPrompt(filePath string) (*Prompt, error) {
	var prompt Prompt
	if _, err := toml.DecodeFile(filePath, &prompt); err != nil {
		return nil, fmt.Errorf("error decoding prompt file: %w", err)
	}
	if strings.TrimSpace(prompt.Query) == "" {
		return nil, fmt.Errorf("prompt file %s has no query", filePath)
	}
	return &prompt, nil
}

// Entry is a prompt template found on disk
type Entry struct {
	Name string // relative path without .toml, slash separated
	Dir  string // prompt directory it was found in
}

// ListPrompts scans promptDirs recursively for .toml files. When a name
// exists in several directories the later directory wins.
func ListPrompts(promptDirs []string) ([]Entry, error) {
	found := make(map[string]string)
	for _, promptDir := range promptDirs {
		if _, err := os.Stat(promptDir); os.IsNotExist(err) {
			continue
		}

		err := filepath.Walk(promptDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !strings.HasSuffix(info.Name(), ".toml") {
				return nil
			}
			relPath, err := filepath.Rel(promptDir, path)
			if err != nil {
				return nil
			}
			found[filepath.ToSlash(strings.TrimSuffix(relPath, ".toml"))] = promptDir
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking prompt directory %s: %w", promptDir, err)
		}
	}

	entries := make([]Entry, 0, len(found))
	for name, dir := range found {
		entries = append(entries, Entry{Name: name, Dir: dir})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
