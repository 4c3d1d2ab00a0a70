package provider

import "testing"

func TestExtractText(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   string
	}{
		{"plain text", "Claim: ship it.\n", "Claim: ship it."},
		{"empty", "   \n", ""},
		{"result envelope", `{"result": "Claim: ship it."}`, "Claim: ship it."},
		{"response envelope", `{"response": "hello"}`, "hello"},
		{"output envelope", `{"output": "text here"}`, "text here"},
		{"json string", `"bare string"`, "bare string"},
		{
			"content blocks",
			`{"content": [{"type": "text", "text": "part one"}, {"type": "text", "text": "part two"}]}`,
			"part one\npart two",
		},
		{
			"unknown envelope passes through",
			`{"unrelated": 42}`,
			`{"unrelated": 42}`,
		},
		{"invalid json passes through", `{"broken":`, `{"broken":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractText(tt.stdout); got != tt.want {
				t.Errorf("ExtractText(%q) = %q, want %q", tt.stdout, got, tt.want)
			}
		})
	}
}
