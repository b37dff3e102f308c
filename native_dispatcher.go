package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// UnknownCallID replaces a missing call id in native results.
const UnknownCallID = "unknown"

var errNotObject = errors.New("arguments are not a JSON object")

// NativeDispatcher implements the structured tool-call protocol of
// providers that support it.
type NativeDispatcher struct {
	logger Logger
}

var _ Dispatcher = (*NativeDispatcher)(nil)

// NewNativeDispatcher returns a native-protocol dispatcher.
func NewNativeDispatcher(opts ...Option) *NativeDispatcher {
	o := buildOptions(opts)
	return &NativeDispatcher{logger: o.logger}
}

func (d *NativeDispatcher) ParseResponse(ctx context.Context, resp ChatResponse) (string, []ParsedToolCall) {
	calls := make([]ParsedToolCall, 0, len(resp.ToolCalls))
	for _, tc := range resp.ToolCalls {
		calls = append(calls, ParsedToolCall{
			Name:      tc.Name,
			Arguments: d.decodeArguments(ctx, tc),
			CallID:    tc.ID,
		})
	}
	return resp.Text, calls
}

// decodeArguments never fails. Anything but a JSON object is logged and
// replaced by an empty object; an empty string is simply no arguments.
func (d *NativeDispatcher) decodeArguments(ctx context.Context, tc ProviderToolCall) map[string]any {
	if strings.TrimSpace(tc.Arguments) == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil || args == nil {
		if err == nil {
			err = errNotObject
		}
		d.logger.Warn(ctx, "failed to parse native tool call arguments as JSON; defaulting to empty object",
			"tool", tc.Name,
			"error", err.Error(),
		)
		return map[string]any{}
	}
	return args
}

func (d *NativeDispatcher) FormatResults(results []ToolExecutionResult) ConversationMessage {
	out := make([]ToolResultMessage, 0, len(results))
	for _, r := range results {
		id := r.CallID
		if id == "" {
			id = UnknownCallID
		}
		out = append(out, ToolResultMessage{CallID: id, Content: r.Output})
	}
	return ToolResults{Results: out}
}

func (d *NativeDispatcher) PromptInstructions([]ToolSpec) string { return "" }

func (d *NativeDispatcher) ToProviderMessages(history []ConversationMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		switch m := canonical(m).(type) {
		case Chat:
			out = append(out, m.Message)
		case AssistantToolCalls:
			if m.Text != "" {
				out = append(out, AssistantMessage(m.Text))
			}
			for _, tc := range m.ToolCalls {
				out = append(out, AssistantMessage("Tool call: "+tc.Name))
			}
		case ToolResults:
			var b strings.Builder
			for _, r := range m.Results {
				fmt.Fprintf(&b, "Tool result for %s: %s\n", r.CallID, r.Content)
			}
			out = append(out, UserMessage(b.String()))
		}
	}
	return out
}

func (d *NativeDispatcher) ShouldSendToolSpecs() bool { return true }
