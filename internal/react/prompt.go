package react

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	continuationPrompt = "Based on the information gathered, continue helping the user.\n" +
		"If you have enough information, provide your FINAL ANSWER.\n" +
		"If you need more information, call another tool.\n"

	forcedFinishPrompt = "\nPlease provide your final answer now."
)

const systemPromptTemplate = `You are an intelligent travel planning agent for PlanIT. You can use tools to help users plan their trips.

## Available Tools
%s

## How to Use Tools
When you need information, respond with a tool call in this EXACT format:
` + "```" + `
TOOL: tool_name
ARGS: {"param1": "value1", "param2": "value2"}
` + "```" + `

## Rules
1. THINK first about what information you need
2. Call ONE tool at a time
3. Wait for the result before calling another tool
4. After getting enough information, provide a FINAL ANSWER
5. Be specific and helpful in your responses

## Important
- For places you have no reliable knowledge of, use search_web to find real attractions, prices and tips. Do not invent details.
- For travel in India or when the user mentions INR or ₹, call calculate_budget with currency "INR".
- For prices, opening hours or details about smaller cities, prefer search_web over other tools.

## Response Format
- If you need a tool, start with your reasoning, then the tool call
- If you have enough information, give your final answer directly
- Always provide detailed, practical travel recommendations

## Example
User: "What's the weather like in Paris?"

Your response:
I'll check the weather in Paris for you.

TOOL: get_weather
ARGS: {"location": "Paris"}

(After receiving the result you would then provide the answer)
`

// SystemPrompt renders the agent instructions around a tool catalog.
func SystemPrompt(catalog string) string {
	return fmt.Sprintf(systemPromptTemplate, catalog)
}

// loopState is owned by a single Run call and never shared.
type loopState struct {
	blocks    []string
	records   []ToolCallRecord
	iteration int
	bound     int
	state     State
}

func newLoopState(message string, bound int) *loopState {
	return &loopState{
		blocks:  []string{"User request: " + message + "\n\n"},
		records: []ToolCallRecord{},
		bound:   bound,
		state:   StateThinking,
	}
}

func (s *loopState) context() string {
	return strings.Join(s.blocks, "")
}

// prompt is the text sent on a regular iteration.
func (s *loopState) prompt() string {
	if len(s.records) == 0 {
		return s.context()
	}
	return s.context() + continuationPrompt
}

func (s *loopState) forcedPrompt() string {
	return s.context() + forcedFinishPrompt
}

func (s *loopState) record(call ToolCall, result map[string]any) {
	s.records = append(s.records, ToolCallRecord{
		Position: len(s.records) + 1,
		Tool:     call.Name,
		Args:     call.Args,
		Result:   result,
	})
	s.blocks = append(s.blocks, toolBlock(call.Name, call.Args, result))
}

func toolBlock(name string, args, result map[string]any) string {
	var b strings.Builder
	b.WriteString("\n--- Tool Call ---\n")
	b.WriteString("Tool: " + name + "\n")
	b.WriteString("Arguments: " + encodeJSON(args, "") + "\n")
	b.WriteString("Result: " + encodeJSON(result, "  ") + "\n")
	b.WriteString("--- End Tool Call ---\n\n")
	return b.String()
}

func encodeJSON(v any, indent string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
