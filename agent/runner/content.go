package runner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/egware/erpagent/agent"
)

// ExtractTextContent flattens a model content payload to plain text.
// Providers return either a string, a list of text blocks, or a single
// text block object; list entries are joined with newlines.
func ExtractTextContent(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case map[string]any:
		if text, ok := v["text"].(string); ok {
			return text
		}
		return ""
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			switch block := item.(type) {
			case string:
				parts = append(parts, block)
			case map[string]any:
				if text, ok := block["text"].(string); ok {
					parts = append(parts, text)
				}
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}

// formatToolResults renders executed tool outcomes for the synthesis
// turn. Failures are included inline so the model can explain them.
func formatToolResults(results []agent.ToolResult) string {
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if res.Error != "" {
			fmt.Fprintf(&b, "%s error: %s", res.Tool, res.Error)
			continue
		}
		raw, err := json.MarshalIndent(res.Result, "", "  ")
		if err != nil {
			fmt.Fprintf(&b, "%s error: unserializable result", res.Tool)
			continue
		}
		fmt.Fprintf(&b, "%s: %s", res.Tool, raw)
	}
	return b.String()
}
