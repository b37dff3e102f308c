package dispatch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspirepan/dispatch"
	"github.com/inspirepan/dispatch/internal/testutil"
)

func TestNativeDispatcher_ParseResponse(t *testing.T) {
	logger := &testutil.RecordingLogger{}
	d := dispatch.NewNativeDispatcher(dispatch.WithLogger(logger))

	resp := dispatch.ChatResponse{
		Text: "Running tools",
		ToolCalls: []dispatch.ProviderToolCall{
			{ID: "c1", Name: "add", Arguments: `{"a":1,"b":2}`},
			{ID: "c2", Name: "broken", Arguments: `{"a":`},
			{ID: "c3", Name: "empty", Arguments: ""},
			{ID: "c4", Name: "scalar", Arguments: `42`},
		},
	}
	text, calls := d.ParseResponse(context.Background(), resp)

	assert.Equal(t, "Running tools", text)
	require.Len(t, calls, len(resp.ToolCalls))
	assert.Equal(t, dispatch.ParsedToolCall{Name: "add", Arguments: map[string]any{"a": float64(1), "b": float64(2)}, CallID: "c1"}, calls[0])
	for i, c := range calls[1:] {
		assert.Equal(t, resp.ToolCalls[i+1].ID, c.CallID)
		assert.Equal(t, map[string]any{}, c.Arguments)
	}

	warnings := logger.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "broken", warnings[0].Value("tool"))
	assert.Equal(t, "scalar", warnings[1].Value("tool"))
	assert.NotEmpty(t, warnings[0].Value("error"))
}

func TestNativeDispatcher_FormatResults(t *testing.T) {
	d := dispatch.NewNativeDispatcher()
	msg := d.FormatResults([]dispatch.ToolExecutionResult{
		{Name: "add", Output: "3", Success: true, CallID: "c1"},
		{Name: "lost", Output: "oops", Success: false},
	})
	assert.Equal(t, dispatch.ToolResults{Results: []dispatch.ToolResultMessage{
		{CallID: "c1", Content: "3"},
		{CallID: dispatch.UnknownCallID, Content: "oops"},
	}}, msg)
	assert.Empty(t, d.PromptInstructions([]dispatch.ToolSpec{testutil.CalculatorTool{}.Spec()}))
	assert.True(t, d.ShouldSendToolSpecs())
}

func TestNativeDispatcher_ToProviderMessages(t *testing.T) {
	d := dispatch.NewNativeDispatcher()
	got := d.ToProviderMessages(testutil.SampleHistory())

	want := []dispatch.ChatMessage{
		dispatch.SystemMessage("You are helpful."),
		dispatch.UserMessage("What is 2+3?"),
		dispatch.AssistantMessage("Let me add."),
		dispatch.AssistantMessage("Tool call: add"),
		dispatch.UserMessage("Tool result for call_1: 5.00\n"),
		dispatch.AssistantMessage("It is 5."),
	}
	assert.Equal(t, want, got)
}

func TestNativeDispatcher_ToProviderMessagesWithoutText(t *testing.T) {
	d := dispatch.NewNativeDispatcher()
	got := d.ToProviderMessages([]dispatch.ConversationMessage{
		dispatch.AssistantToolCalls{ToolCalls: []dispatch.ProviderToolCall{
			{ID: "a", Name: "x"},
			{ID: "b", Name: "y"},
		}},
	})
	assert.Equal(t, []dispatch.ChatMessage{
		dispatch.AssistantMessage("Tool call: x"),
		dispatch.AssistantMessage("Tool call: y"),
	}, got)
}
