package dispatch

import (
	"encoding/json"
	"fmt"
)

// ParsedToolCall is a tool call recovered from a model reply.
type ParsedToolCall struct {
	Name string `json:"name"`
	// Arguments is never nil; an empty map means no arguments.
	Arguments map[string]any `json:"arguments"`
	// CallID is only set when the call came from a native protocol.
	CallID string `json:"call_id,omitempty"`
}

// ArgsJSON encodes the arguments as a JSON object.
func (c ParsedToolCall) ArgsJSON() (json.RawMessage, error) {
	if c.Arguments == nil {
		return json.RawMessage(`{}`), nil
	}
	b, err := json.Marshal(c.Arguments)
	if err != nil {
		return nil, fmt.Errorf("dispatch: encode arguments of %s: %w", c.Name, err)
	}
	return b, nil
}

// ToolExecutionResult is the outcome of running a parsed tool call.
type ToolExecutionResult struct {
	Name    string `json:"name"`
	Output  string `json:"output"`
	Success bool   `json:"success"`
	CallID  string `json:"call_id,omitempty"`
}

// ProviderToolCall is a structured call record returned by a provider with
// native tool calling. Arguments holds the encoded JSON document as sent.
type ProviderToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatResponse is a model reply as handed over by the provider integration.
type ChatResponse struct {
	Text      string             `json:"text,omitempty"`
	ToolCalls []ProviderToolCall `json:"tool_calls,omitempty"`
}

// HasToolCalls reports whether the provider returned structured call records.
func (r ChatResponse) HasToolCalls() bool { return len(r.ToolCalls) > 0 }
