package anthropic_test

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/inspirepan/dispatch"
	"github.com/inspirepan/dispatch/internal/testutil"
	anth "github.com/inspirepan/dispatch/providers/anthropic"
	"github.com/inspirepan/dispatch/providers/base"
)

func buildJSON(t *testing.T, req base.Request) gjson.Result {
	t.Helper()
	params, err := anth.BuildParams(req)
	require.NoError(t, err)
	b, err := json.Marshal(params)
	require.NoError(t, err)
	return gjson.ParseBytes(b)
}

func TestBuildParams_Native(t *testing.T) {
	doc := buildJSON(t, base.Request{
		Config:     base.NewConfig(base.WithModel("claude-sonnet-4-5"), base.WithSystemPrompt("Be brief.")),
		Dispatcher: dispatch.NewNativeDispatcher(),
		History:    testutil.SampleHistory(),
		Tools:      []dispatch.ToolSpec{testutil.CalculatorTool{}.Spec()},
	})

	assert.Equal(t, "claude-sonnet-4-5", doc.Get("model").String())
	assert.Equal(t, int64(anth.DefaultMaxTokens), doc.Get("max_tokens").Int())
	assert.Equal(t, "Be brief.\n\nYou are helpful.", doc.Get("system.0.text").String())

	msgs := doc.Get("messages").Array()
	require.Len(t, msgs, 4)
	assert.Equal(t, "user", msgs[0].Get("role").String())

	assert.Equal(t, "assistant", msgs[1].Get("role").String())
	assert.Equal(t, "text", msgs[1].Get("content.0.type").String())
	assert.Equal(t, "tool_use", msgs[1].Get("content.1.type").String())
	assert.Equal(t, "call_1", msgs[1].Get("content.1.id").String())
	assert.Equal(t, "add", msgs[1].Get("content.1.name").String())
	assert.Equal(t, float64(2), msgs[1].Get("content.1.input.a").Float())

	assert.Equal(t, "user", msgs[2].Get("role").String())
	assert.Equal(t, "tool_result", msgs[2].Get("content.0.type").String())
	assert.Equal(t, "call_1", msgs[2].Get("content.0.tool_use_id").String())

	assert.Equal(t, "assistant", msgs[3].Get("role").String())

	assert.Equal(t, "add", doc.Get("tools.0.name").String())
	assert.True(t, doc.Get("tools.0.input_schema.properties.a").Exists())
	assert.Equal(t, `["a","b"]`, doc.Get("tools.0.input_schema.required").Raw)
}

func TestBuildParams_TextMergesTurns(t *testing.T) {
	history := []dispatch.ConversationMessage{
		dispatch.Chat{Message: dispatch.UserMessage("Say hi.")},
		dispatch.Chat{Message: dispatch.AssistantMessage(`<say>hi</say>`)},
		dispatch.NewTextDispatcher().FormatResults([]dispatch.ToolExecutionResult{{Name: "tts", Output: "ok", Success: true}}),
		dispatch.Chat{Message: dispatch.UserMessage("Again.")},
	}
	doc := buildJSON(t, base.Request{
		Config:     base.NewConfig(base.WithMaxOutputTokens(64), base.WithTemperature(0)),
		Dispatcher: dispatch.NewTextDispatcher(),
		History:    history,
	})

	assert.False(t, doc.Get("tools").Exists())
	assert.Equal(t, int64(64), doc.Get("max_tokens").Int())
	assert.Contains(t, doc.Get("system.0.text").String(), "## Tool Use Protocol")

	msgs := doc.Get("messages").Array()
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", msgs[2].Get("role").String())
	require.Len(t, msgs[2].Get("content").Array(), 2)
	assert.Contains(t, msgs[2].Get("content.0.text").String(), "[Tool results]")
	assert.Equal(t, "Again.", msgs[2].Get("content.1.text").String())
}

func TestBuildParams_InvalidToolInput(t *testing.T) {
	doc := buildJSON(t, base.Request{
		Dispatcher: dispatch.NewNativeDispatcher(),
		History: []dispatch.ConversationMessage{
			dispatch.Chat{Message: dispatch.UserMessage("go")},
			dispatch.AssistantToolCalls{ToolCalls: []dispatch.ProviderToolCall{{ID: "x", Name: "y", Arguments: "{nope"}}},
		},
	})
	assert.JSONEq(t, `{}`, doc.Get("messages.1.content.0.input").Raw)
}

func TestParseMessage(t *testing.T) {
	var msg anthropic.Message
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-5",
		"stop_reason": "tool_use",
		"content": [
			{"type": "text", "text": "Let me "},
			{"type": "text", "text": "check."},
			{"type": "tool_use", "id": "toolu_1", "name": "add", "input": {"a": 1, "b": 2}}
		],
		"usage": {"input_tokens": 1, "output_tokens": 1}
	}`), &msg))

	resp := anth.ParseMessage(&msg)
	assert.Equal(t, "Let me check.", resp.Text)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls[0].ID)
	assert.JSONEq(t, `{"a":1,"b":2}`, resp.ToolCalls[0].Arguments)

	_, calls := dispatch.NewNativeDispatcher(dispatch.WithLogger(dispatch.NopLogger{})).ParseResponse(t.Context(), resp)
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2)}, calls[0].Arguments)
}
