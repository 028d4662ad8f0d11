// Package toolcall extracts tool invocations from LLM output and builds
// the prompts that teach a model which tools exist.
package toolcall

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// rawCall is the JSON shape models emit for a tool invocation.
type rawCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Parse scans output for a tool call. Text around the call is returned as
// CleanText. When no call is found, the whole output is clean text.
func Parse(output string) types.ToolCall {
	result := types.ToolCall{CleanText: strings.TrimSpace(output)}

	start := strings.IndexByte(output, '{')
	for start >= 0 {
		dec := json.NewDecoder(strings.NewReader(output[start:]))
		var call rawCall
		if err := dec.Decode(&call); err == nil && call.Name != "" {
			end := start + int(dec.InputOffset())
			clean := strings.TrimSpace(output[:start] + output[end:])
			result.HasToolCall = true
			result.CleanText = stripMarkers(clean)
			result.ToolName = call.Name
			result.ArgumentsJSON = sanitizeArguments(call.Arguments)
			result.CallID = uuid.NewString()
			return result
		}
		next := strings.IndexByte(output[start+1:], '{')
		if next < 0 {
			break
		}
		start += 1 + next
	}
	return result
}

// sanitizeArguments enforces that arguments are a JSON object or array.
// Anything else (including invalid JSON) becomes an empty object so
// downstream executors always get decodable input.
func sanitizeArguments(raw json.RawMessage) string {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return "{}"
	}
	if !json.Valid(raw) {
		return "{}"
	}
	return string(raw)
}

// stripMarkers drops wrapper tokens some chat templates leave around the
// call, e.g. <tool_call></tool_call> or a bare ```json fence.
func stripMarkers(s string) string {
	for _, m := range []string{"<tool_call>", "</tool_call>", "```json", "```"} {
		s = strings.ReplaceAll(s, m, "")
	}
	return strings.TrimSpace(s)
}

// Format names understood by FormatPromptNamed. The name string is the
// source of truth; unknown names fall back to the default format.
const (
	FormatDefault = "default"
	FormatHermes  = "hermes"
	FormatLlama   = "llama"
)

// FormatPromptJSON renders the default tools system prompt from a JSON
// array of tool definitions.
func FormatPromptJSON(toolsJSON string) (string, error) {
	return FormatPromptNamed(toolsJSON, FormatDefault)
}

// FormatPromptNamed renders the tools system prompt in the named style.
func FormatPromptNamed(toolsJSON, formatName string) (string, error) {
	if toolsJSON == "" {
		return "", status.InvalidArgument
	}
	if !json.Valid([]byte(toolsJSON)) {
		return "", status.InvalidArgument
	}
	normalized, err := NormalizeJSON(toolsJSON)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	switch formatName {
	case FormatHermes:
		b.WriteString("You have access to the following functions. ")
		b.WriteString("To call a function, respond with a JSON object inside <tool_call></tool_call> tags.\n")
		b.WriteString("<tools>\n")
		b.WriteString(normalized)
		b.WriteString("\n</tools>\n")
	case FormatLlama:
		b.WriteString("Environment: ipython\nAvailable tools:\n")
		b.WriteString(normalized)
		b.WriteString("\nRespond with {\"name\": <tool>, \"arguments\": <args>} to invoke a tool.\n")
	default:
		b.WriteString("You have access to the following tools:\n")
		b.WriteString(normalized)
		b.WriteString("\n\nTo use a tool, respond with a JSON object of the form ")
		b.WriteString(`{"name": "<tool name>", "arguments": {...}}. `)
		b.WriteString("Otherwise answer normally.\n")
	}
	return b.String(), nil
}

// PromptOptions tunes prompt construction.
type PromptOptions struct {
	MaxTools        int
	IncludeExamples bool
	FormatName      string
}

// DefaultPromptOptions mirrors the values hosts get when passing nothing.
func DefaultPromptOptions() PromptOptions {
	return PromptOptions{MaxTools: 5, IncludeExamples: true, FormatName: FormatDefault}
}

// BuildInitialPrompt combines the tools system prompt with the user's
// request. Tool definitions beyond MaxTools are dropped.
func BuildInitialPrompt(userPrompt, toolsJSON string, opts PromptOptions) (string, error) {
	if userPrompt == "" {
		return "", status.InvalidArgument
	}
	if opts.MaxTools > 0 {
		limited, err := limitTools(toolsJSON, opts.MaxTools)
		if err != nil {
			return "", err
		}
		toolsJSON = limited
	}
	sys, err := FormatPromptNamed(toolsJSON, opts.FormatName)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(sys)
	if opts.IncludeExamples {
		b.WriteString("\nExample: to look up weather, respond with ")
		b.WriteString(`{"name": "get_weather", "arguments": {"city": "Paris"}}`)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(userPrompt)
	return b.String(), nil
}

// BuildFollowupPrompt continues the conversation after a tool executed.
// toolsPrompt is re-attached only when keepToolsAvailable is set and a
// prompt was given.
func BuildFollowupPrompt(originalPrompt string, toolsPrompt *string, toolName, resultJSON string, keepToolsAvailable bool) (string, error) {
	if originalPrompt == "" || toolName == "" {
		return "", status.InvalidArgument
	}
	normalized, err := NormalizeJSON(resultJSON)
	if err != nil {
		return "", status.InvalidArgument
	}
	var b strings.Builder
	if keepToolsAvailable && toolsPrompt != nil && *toolsPrompt != "" {
		b.WriteString(*toolsPrompt)
		b.WriteString("\n")
	}
	b.WriteString(originalPrompt)
	b.WriteString("\n\nThe tool ")
	b.WriteString(toolName)
	b.WriteString(" returned:\n")
	b.WriteString(normalized)
	b.WriteString("\n\nUse this result to answer the original request.")
	return b.String(), nil
}

// NormalizeJSON re-encodes s compactly with stable key order, so equal
// documents compare equal as strings.
func NormalizeJSON(s string) (string, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return "", status.InvalidArgument
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", status.InvalidArgument
	}
	return string(out), nil
}

// limitTools truncates a JSON array of tool definitions to n entries.
// Non-array documents pass through untouched.
func limitTools(toolsJSON string, n int) (string, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(toolsJSON), &arr); err != nil {
		if json.Valid([]byte(toolsJSON)) {
			return toolsJSON, nil
		}
		return "", status.InvalidArgument
	}
	if len(arr) <= n {
		return toolsJSON, nil
	}
	out, err := json.Marshal(arr[:n])
	if err != nil {
		return "", status.InvalidArgument
	}
	return string(out), nil
}
