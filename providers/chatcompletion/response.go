package chatcompletion

import (
	"github.com/openai/openai-go/v3"

	"github.com/inspirepan/dispatch"
)

// ParseCompletion converts the first choice of a completion into a
// ChatResponse. Non-function tool calls are skipped.
func ParseCompletion(c *openai.ChatCompletion) dispatch.ChatResponse {
	if c == nil || len(c.Choices) == 0 {
		return dispatch.ChatResponse{}
	}
	msg := c.Choices[0].Message
	resp := dispatch.ChatResponse{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		if tc.Type != "" && tc.Type != "function" {
			continue
		}
		resp.ToolCalls = append(resp.ToolCalls, dispatch.ProviderToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return resp
}
