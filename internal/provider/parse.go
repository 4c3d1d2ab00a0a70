package provider

import (
	"encoding/json"
	"strings"
)

// ExtractText unwraps CLI stdout. Modern AI CLIs emit a JSON envelope
// whose payload key varies; plain text passes through untouched.
func ExtractText(stdout string) string {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return ""
	}

	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err == nil {
		if text := extractJSONText(value); text != "" {
			return text
		}
	}
	return trimmed
}

func extractJSONText(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		for _, key := range []string{"result", "response", "output", "answer", "text", "message"} {
			if text, ok := v[key].(string); ok && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text)
			}
		}
		if content, ok := v["content"].([]any); ok {
			var parts []string
			for _, item := range content {
				switch c := item.(type) {
				case string:
					parts = append(parts, c)
				case map[string]any:
					if text, ok := c["text"].(string); ok {
						parts = append(parts, text)
					}
				}
			}
			joined := strings.TrimSpace(strings.Join(parts, "\n"))
			if joined != "" {
				return joined
			}
		}
	}
	return ""
}
