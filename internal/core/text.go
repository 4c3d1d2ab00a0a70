package core

import "strings"

// SummarizeLine returns the first non-empty line of value, truncated
// to at most max runes.
func SummarizeLine(value string, max int) string {
	var line string
	for _, candidate := range strings.Split(value, "\n") {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" {
			line = candidate
			break
		}
	}

	runes := []rune(line)
	if len(runes) <= max {
		return line
	}
	if max < 1 {
		return ""
	}
	return strings.TrimSpace(string(runes[:max-1]))
}

// DedupNonEmpty trims items, drops empties, and removes duplicates
// while preserving order.
func DedupNonEmpty(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		clean := strings.TrimSpace(item)
		if clean == "" || seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}
