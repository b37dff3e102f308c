// Package anthropic adapts dispatch history to the Anthropic Messages API
// and back.
package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/inspirepan/dispatch"
	"github.com/inspirepan/dispatch/providers/base"
)

// ModelEnv is read by base.ApplyEnvDefaults when no model is configured.
const ModelEnv = "ANTHROPIC_MODEL"

// DefaultMaxTokens is used when Config.MaxOutputTokens is unset; the API
// requires a value.
const DefaultMaxTokens = 1024

// turn is one role's run of content blocks before merging.
type turn struct {
	role   dispatch.Role
	blocks []anthropic.ContentBlockParamUnion
}

// BuildParams converts a dispatch request to Messages API params.
//
// System turns are lifted into the system prompt and consecutive turns of
// the same role are merged, since the API requires alternation. With the
// native protocol tool calls become tool_use blocks and results become
// tool_result blocks; with the text protocol history is rendered by the
// dispatcher and no tools are attached.
func BuildParams(req base.Request) (anthropic.MessageNewParams, error) {
	if req.Dispatcher == nil {
		return anthropic.MessageNewParams{}, dispatch.ErrNoDispatcher
	}

	maxTokens := DefaultMaxTokens
	if req.Config.MaxOutputTokens != nil {
		maxTokens = *req.Config.MaxOutputTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Config.Model),
		MaxTokens: int64(maxTokens),
	}

	var system []string
	if sys := req.SystemPrompt(); sys != "" {
		system = append(system, sys)
	}

	var turns []turn
	add := func(role dispatch.Role, blocks ...anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(turns); n > 0 && turns[n-1].role == role {
			turns[n-1].blocks = append(turns[n-1].blocks, blocks...)
			return
		}
		turns = append(turns, turn{role: role, blocks: blocks})
	}
	addChat := func(m dispatch.ChatMessage) {
		if m.Role == dispatch.RoleSystem {
			if s := strings.TrimSpace(m.Content); s != "" {
				system = append(system, s)
			}
			return
		}
		add(m.Role, textBlocks(m.Content)...)
	}

	if req.Native() {
		for _, msg := range req.History {
			switch m := msg.(type) {
			case dispatch.Chat:
				addChat(m.Message)
			case *dispatch.Chat:
				addChat(m.Message)
			case dispatch.AssistantToolCalls:
				add(dispatch.RoleAssistant, convertAssistantToolCalls(m)...)
			case *dispatch.AssistantToolCalls:
				add(dispatch.RoleAssistant, convertAssistantToolCalls(*m)...)
			case dispatch.ToolResults:
				add(dispatch.RoleUser, convertToolResults(m)...)
			case *dispatch.ToolResults:
				add(dispatch.RoleUser, convertToolResults(*m)...)
			}
		}
		for _, spec := range req.Tools {
			params.Tools = append(params.Tools, convertToolSpec(spec))
		}
	} else {
		for _, m := range req.Dispatcher.ToProviderMessages(req.History) {
			addChat(m)
		}
	}

	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	for _, t := range turns {
		if t.role == dispatch.RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(t.blocks...))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(t.blocks...))
		}
	}
	if req.Config.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Config.Temperature)
	}
	return params, nil
}

// textBlocks skips empty text; the API rejects empty text blocks.
func textBlocks(text string) []anthropic.ContentBlockParamUnion {
	if text == "" {
		return nil
	}
	return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(text)}
}

func convertAssistantToolCalls(m dispatch.AssistantToolCalls) []anthropic.ContentBlockParamUnion {
	blocks := textBlocks(m.Text)
	for _, tc := range m.ToolCalls {
		blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, toolInput(tc.Arguments), tc.Name))
	}
	return blocks
}

// toolInput passes valid JSON objects through untouched and replaces
// anything else with an empty object.
func toolInput(args string) json.RawMessage {
	raw := json.RawMessage(strings.TrimSpace(args))
	if len(raw) == 0 || raw[0] != '{' || !json.Valid(raw) {
		return json.RawMessage(`{}`)
	}
	return raw
}

func convertToolResults(m dispatch.ToolResults) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Results))
	for _, r := range m.Results {
		blocks = append(blocks, anthropic.NewToolResultBlock(r.CallID, r.Content, false))
	}
	return blocks
}

func convertToolSpec(spec dispatch.ToolSpec) anthropic.ToolUnionParam {
	schema := anthropic.ToolInputSchemaParam{}
	if props, ok := spec.Parameters["properties"]; ok {
		schema.Properties = props
	}
	switch req := spec.Parameters["required"].(type) {
	case []string:
		schema.Required = req
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	return anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
		Name:        spec.Name,
		Description: anthropic.String(spec.Description),
		InputSchema: schema,
	}}
}

// ParseMessage converts a Messages API response into a ChatResponse. Text
// blocks are concatenated and tool_use blocks keep their raw input.
func ParseMessage(msg *anthropic.Message) dispatch.ChatResponse {
	if msg == nil {
		return dispatch.ChatResponse{}
	}
	var (
		resp dispatch.ChatResponse
		text strings.Builder
	)
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			resp.ToolCalls = append(resp.ToolCalls, dispatch.ProviderToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}
	resp.Text = text.String()
	return resp
}
