// Package prompts holds the fixed model instruction templates, embedded at
// compile time as JSON files keyed by prompt name.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed *.json
var promptFiles embed.FS

// Get retrieves a prompt by filename (e.g. "extraction.json") and key.
func Get(filename, key string) (string, error) {
	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var prompts map[string]string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return "", fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	prompt, ok := prompts[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// MustGet retrieves a prompt, panicking if it is missing. Use only for
// prompts required at initialization time.
func MustGet(filename, key string) string {
	prompt, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Format replaces {{.Key}} placeholders with values from data.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		result = strings.ReplaceAll(result, fmt.Sprintf("{{.%s}}", key), value)
	}
	return result
}
