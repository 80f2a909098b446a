package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FormatMessage expands the named prompt template around message.
// Without a prompt name the message is returned unchanged.
func FormatMessage(message string, promptName string, promptDirs []string, args []string) (string, error) {
	if promptName == "" {
		return message, nil
	}

	promptFile := promptName
	if !strings.HasSuffix(promptFile, ".toml") {
		promptFile = promptFile + ".toml"
	}

	// Later directories take precedence
	var promptPath string
	for _, promptDir := range promptDirs {
		candidatePath := filepath.Join(promptDir, promptFile)
		if _, err := os.Stat(candidatePath); err == nil {
			promptPath = candidatePath
		}
	}
	if promptPath == "" {
		return "", fmt.Errorf("prompt file '%s' not found in any of the prompt directories: %v", promptFile, promptDirs)
	}

	promptTemplate, err := LoadPrompt(promptPath)
	if err != nil {
		return "", fmt.Errorf("error loading prompt file: %w", err)
	}

	argMap, err := processArgs(args)
	if err != nil {
		return "", fmt.Errorf("error processing arguments: %w", err)
	}

	replacements := make(map[string]string, len(argMap)+1)
	replacements["input"] = message
	for key, value := range argMap {
		replacements[key] = value
	}

	query := promptTemplate.Query
	for key, value := range replacements {
		query = strings.ReplaceAll(query, fmt.Sprintf("{{%s}}", key), value)
	}
	return strings.TrimSpace(query), nil
}

// processArgs parses key:value arguments
func processArgs(args []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if strings.HasPrefix(arg, `"`) && strings.HasSuffix(arg, `"`) {
			arg = strings.Trim(arg, `"`)
		}

		parts := strings.SplitN(arg, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid argument format: %s. Expected format: key:value", arg)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.ReplaceAll(value, `\:`, ":")
		value = strings.ReplaceAll(value, `\"`, `"`)

		if key == "" {
			return nil, fmt.Errorf("invalid argument format: %s. Key is empty", arg)
		}
		if key == "input" {
			return nil, fmt.Errorf("'input' is a reserved keyword and cannot be used as a key")
		}
		result[key] = value
	}
	return result, nil
}
