package react

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	toolPattern = regexp.MustCompile(`(?i)TOOL:\s*(\w+)`)
	// Non-nested braces only: an argument object containing "}" before its
	// end is truncated at that point and will usually fail to decode.
	argsPattern = regexp.MustCompile(`(?is)ARGS:\s*(\{[^}]+\})`)

	toolLine = regexp.MustCompile(`(?i)^\s*TOOL:\s*`)
	argsLine = regexp.MustCompile(`(?i)^\s*ARGS:\s*`)
)

// ToolCall is a tool request recognised in model output.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"arguments"`
}

// ParseToolCall looks for a "TOOL: name" token and an "ARGS: {...}" block.
// The second return value is false when the text carries no tool call, in
// which case the text is a final answer. Only the first match of each pattern
// is honoured. Single quotes are rewritten to double quotes before decoding;
// an argument block that still does not decode yields empty arguments.
func ParseToolCall(text string) (ToolCall, bool) {
	m := toolPattern.FindStringSubmatch(text)
	if m == nil {
		return ToolCall{}, false
	}

	call := ToolCall{Name: strings.TrimSpace(m[1]), Args: map[string]any{}}
	if am := argsPattern.FindStringSubmatch(text); am != nil {
		raw := strings.ReplaceAll(am[1], "'", `"`)
		var args map[string]any
		if err := json.Unmarshal([]byte(raw), &args); err == nil && args != nil {
			call.Args = args
		}
	}
	return call, true
}

// CleanResponse strips residual tool-call syntax from a final answer: TOOL
// lines, ARGS lines, and a brace-leading line directly after a TOOL line.
// Applying it twice gives the same text as applying it once.
func CleanResponse(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	skipNext := false

	for _, line := range lines {
		if toolLine.MatchString(line) {
			skipNext = true
			continue
		}
		if argsLine.MatchString(line) {
			continue
		}
		if skipNext && strings.HasPrefix(strings.TrimSpace(line), "{") {
			skipNext = false
			continue
		}
		skipNext = false
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
