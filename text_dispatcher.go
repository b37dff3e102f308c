package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inspirepan/dispatch/internal/tagparse"
)

const toolResultsHeader = "[Tool results]\n"

// TextDispatcher implements the pseudo-tag protocol: calls are embedded in
// the reply text and results are fed back as a user turn.
type TextDispatcher struct {
	logger Logger
}

var _ Dispatcher = (*TextDispatcher)(nil)

// NewTextDispatcher returns a text-protocol dispatcher.
func NewTextDispatcher(opts ...Option) *TextDispatcher {
	o := buildOptions(opts)
	return &TextDispatcher{logger: o.logger}
}

func (d *TextDispatcher) ParseResponse(ctx context.Context, resp ChatResponse) (string, []ParsedToolCall) {
	text, found := tagparse.Parse(resp.Text)
	calls := make([]ParsedToolCall, 0, len(found))
	for _, c := range found {
		calls = append(calls, ParsedToolCall{Name: c.Name, Arguments: c.Arguments})
	}
	if len(calls) > 0 {
		d.logger.Debug(ctx, "parsed tool calls from text", "count", len(calls))
	}
	return text, calls
}

func (d *TextDispatcher) FormatResults(results []ToolExecutionResult) ConversationMessage {
	var b strings.Builder
	b.WriteString(toolResultsHeader)
	for _, r := range results {
		status := "ok"
		if !r.Success {
			status = "error"
		}
		fmt.Fprintf(&b, "<tool_result name=\"%s\" status=\"%s\">\n%s\n</tool_result>\n", r.Name, status, r.Output)
	}
	return Chat{Message: UserMessage(b.String())}
}

func (d *TextDispatcher) PromptInstructions(tools []ToolSpec) string {
	var b strings.Builder
	b.WriteString("## Tool Use Protocol\n\n")
	b.WriteString("To use a tool, wrap a JSON object in <tool_call></tool_call> tags:\n\n")
	b.WriteString("```\n<tool_call>\n{\"name\": \"tool_name\", \"arguments\": {\"param\": \"value\"}}\n</tool_call>\n```\n\n")
	b.WriteString("### Available Tools\n\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "- **%s**: %s\n  Parameters: `%s`\n", t.Name, t.Description, compactSchema(t.Parameters))
	}
	return b.String()
}

func compactSchema(schema map[string]any) string {
	if schema == nil {
		return "{}"
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func (d *TextDispatcher) ToProviderMessages(history []ConversationMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		switch m := canonical(m).(type) {
		case Chat:
			out = append(out, m.Message)
		case AssistantToolCalls:
			out = append(out, AssistantMessage(m.Text))
		case ToolResults:
			var b strings.Builder
			b.WriteString(toolResultsHeader)
			for _, r := range m.Results {
				fmt.Fprintf(&b, "<tool_result id=\"%s\">\n%s\n</tool_result>\n", r.CallID, r.Content)
			}
			out = append(out, UserMessage(b.String()))
		}
	}
	return out
}

func (d *TextDispatcher) ShouldSendToolSpecs() bool { return false }
