// Package chatcompletion adapts dispatch history to the OpenAI Chat
// Completions API and back.
package chatcompletion

import (
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/inspirepan/dispatch"
	"github.com/inspirepan/dispatch/providers/base"
)

// ModelEnv is read by base.ApplyEnvDefaults when no model is configured.
const ModelEnv = "OPENAI_MODEL"

const emptyToolOutput = "<system-reminder>Tool ran without output or errors</system-reminder>"

// BuildParams converts a dispatch request to chat completion params.
//
// With the native protocol history is converted losslessly: assistant turns
// keep their tool_calls and results become tool messages. With the text
// protocol history is rendered by the dispatcher and no tools are attached.
func BuildParams(req base.Request) (openai.ChatCompletionNewParams, error) {
	if req.Dispatcher == nil {
		return openai.ChatCompletionNewParams{}, dispatch.ErrNoDispatcher
	}
	params := openai.ChatCompletionNewParams{Model: req.Config.Model}

	if sys := req.SystemPrompt(); sys != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(sys))
	}

	if req.Native() {
		for _, msg := range req.History {
			params.Messages = append(params.Messages, convertMessage(msg)...)
		}
		for _, tool := range req.Tools {
			params.Tools = append(params.Tools, convertToolSpec(tool))
		}
	} else {
		for _, m := range req.Dispatcher.ToProviderMessages(req.History) {
			params.Messages = append(params.Messages, convertChatMessage(m))
		}
	}

	if len(params.Tools) > 0 {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String("auto"),
		}
		params.ParallelToolCalls = openai.Bool(true)
	}

	if req.Config.Temperature != nil {
		params.Temperature = openai.Float(*req.Config.Temperature)
	}
	if req.Config.MaxOutputTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.Config.MaxOutputTokens))
	}
	return params, nil
}

func convertMessage(msg dispatch.ConversationMessage) []openai.ChatCompletionMessageParamUnion {
	switch m := msg.(type) {
	case dispatch.Chat:
		return []openai.ChatCompletionMessageParamUnion{convertChatMessage(m.Message)}
	case *dispatch.Chat:
		return []openai.ChatCompletionMessageParamUnion{convertChatMessage(m.Message)}
	case dispatch.AssistantToolCalls:
		return []openai.ChatCompletionMessageParamUnion{convertAssistantToolCalls(m)}
	case *dispatch.AssistantToolCalls:
		return []openai.ChatCompletionMessageParamUnion{convertAssistantToolCalls(*m)}
	case dispatch.ToolResults:
		return convertToolResults(m)
	case *dispatch.ToolResults:
		return convertToolResults(*m)
	}
	return nil
}

func convertChatMessage(m dispatch.ChatMessage) openai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case dispatch.RoleSystem:
		return openai.SystemMessage(m.Content)
	case dispatch.RoleAssistant:
		return openai.AssistantMessage(m.Content)
	default:
		return openai.UserMessage(m.Content)
	}
}

func convertAssistantToolCalls(m dispatch.AssistantToolCalls) openai.ChatCompletionMessageParamUnion {
	msg := openai.ChatCompletionAssistantMessageParam{
		Role: "assistant",
	}
	if m.Text != "" {
		msg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(m.Text),
		}
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, convertToolCall(tc))
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &msg}
}

func convertToolCall(tc dispatch.ProviderToolCall) openai.ChatCompletionMessageToolCallUnionParam {
	args := tc.Arguments
	if args == "" {
		args = "{}"
	}
	return openai.ChatCompletionMessageToolCallUnionParam{
		OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
			ID: tc.ID,
			Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
				Name:      tc.Name,
				Arguments: args,
			},
		},
	}
}

func convertToolResults(m dispatch.ToolResults) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(m.Results))
	for _, r := range m.Results {
		content := r.Content
		if content == "" {
			content = emptyToolOutput
		}
		out = append(out, openai.ToolMessage(content, r.CallID))
	}
	return out
}

func convertToolSpec(spec dispatch.ToolSpec) openai.ChatCompletionToolUnionParam {
	return openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
		Name:        spec.Name,
		Description: openai.String(spec.Description),
		Parameters:  shared.FunctionParameters(spec.Parameters),
	})
}
