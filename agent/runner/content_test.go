package runner

import (
	"strings"
	"testing"

	"github.com/egware/erpagent/agent"
)

func TestExtractTextContent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content any
		want    string
	}{
		{"plain string", "hello", "hello"},
		{"text block", map[string]any{"type": "text", "text": "hi"}, "hi"},
		{"block without text", map[string]any{"type": "image"}, ""},
		{"list of strings", []any{"a", "b"}, "a\nb"},
		{"mixed list", []any{"a", map[string]any{"text": "b"}, 42}, "a\nb"},
		{"nil", nil, ""},
		{"number", 3.14, ""},
	}

	for _, tc := range cases {
		if got := ExtractTextContent(tc.content); got != tc.want {
			t.Errorf("%s: ExtractTextContent() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFormatToolResults(t *testing.T) {
	t.Parallel()

	out := formatToolResults([]agent.ToolResult{
		{Tool: "get_summary", Result: map[string]any{"total": 3}},
		{Tool: "get_invoices", Error: "timeout"},
	})

	if !strings.Contains(out, `get_summary: {`) {
		t.Fatalf("missing serialized result: %q", out)
	}
	if !strings.Contains(out, `"total": 3`) {
		t.Fatalf("missing result payload: %q", out)
	}
	if !strings.Contains(out, "get_invoices error: timeout") {
		t.Fatalf("missing inline error: %q", out)
	}
	if !strings.Contains(out, "\n\n") {
		t.Fatalf("entries not separated: %q", out)
	}
}
