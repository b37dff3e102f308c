package chatcompletion_test

import (
	"encoding/json"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/inspirepan/dispatch"
	"github.com/inspirepan/dispatch/internal/testutil"
	"github.com/inspirepan/dispatch/providers/base"
	cc "github.com/inspirepan/dispatch/providers/chatcompletion"
)

func buildJSON(t *testing.T, req base.Request) gjson.Result {
	t.Helper()
	params, err := cc.BuildParams(req)
	require.NoError(t, err)
	b, err := json.Marshal(params)
	require.NoError(t, err)
	return gjson.ParseBytes(b)
}

func TestBuildParams_Native(t *testing.T) {
	doc := buildJSON(t, base.Request{
		Config:     base.NewConfig(base.WithModel("gpt-4o-mini"), base.WithSystemPrompt("Be brief."), base.WithMaxOutputTokens(256)),
		Dispatcher: dispatch.NewNativeDispatcher(),
		History:    testutil.SampleHistory()[1:],
		Tools:      []dispatch.ToolSpec{testutil.CalculatorTool{}.Spec()},
	})

	assert.Equal(t, "gpt-4o-mini", doc.Get("model").String())
	assert.Equal(t, int64(256), doc.Get("max_tokens").Int())
	msgs := doc.Get("messages").Array()
	require.Len(t, msgs, 5)

	assert.Equal(t, "system", msgs[0].Get("role").String())
	assert.Equal(t, "Be brief.", msgs[0].Get("content").String())
	assert.Equal(t, "user", msgs[1].Get("role").String())

	assert.Equal(t, "assistant", msgs[2].Get("role").String())
	assert.Equal(t, "Let me add.", msgs[2].Get("content").String())
	assert.Equal(t, "call_1", msgs[2].Get("tool_calls.0.id").String())
	assert.Equal(t, "add", msgs[2].Get("tool_calls.0.function.name").String())
	assert.Equal(t, `{"a":2,"b":3}`, msgs[2].Get("tool_calls.0.function.arguments").String())

	assert.Equal(t, "tool", msgs[3].Get("role").String())
	assert.Equal(t, "call_1", msgs[3].Get("tool_call_id").String())
	assert.Equal(t, "5.00", msgs[3].Get("content").String())

	assert.Equal(t, "add", doc.Get("tools.0.function.name").String())
	assert.Equal(t, "object", doc.Get("tools.0.function.parameters.type").String())
	assert.Equal(t, "auto", doc.Get("tool_choice").String())
}

func TestBuildParams_Text(t *testing.T) {
	doc := buildJSON(t, base.Request{
		Config:     base.NewConfig(base.WithModel("local-model")),
		Dispatcher: dispatch.NewTextDispatcher(),
		History:    testutil.SampleHistory()[1:],
		Tools:      []dispatch.ToolSpec{testutil.CalculatorTool{}.Spec()},
	})

	assert.False(t, doc.Get("tools").Exists())
	msgs := doc.Get("messages").Array()
	require.Len(t, msgs, 5)
	assert.Contains(t, msgs[0].Get("content").String(), "## Tool Use Protocol")
	assert.Contains(t, msgs[0].Get("content").String(), "- **add**: Add two numbers together")
	assert.Equal(t, "Let me add.", msgs[2].Get("content").String())
	assert.False(t, msgs[2].Get("tool_calls").Exists())
	assert.Equal(t, "user", msgs[3].Get("role").String())
	assert.Contains(t, msgs[3].Get("content").String(), `<tool_result id="call_1">`)
}

func TestBuildParams_NoDispatcher(t *testing.T) {
	_, err := cc.BuildParams(base.Request{})
	assert.ErrorIs(t, err, dispatch.ErrNoDispatcher)
}

func TestParseCompletion(t *testing.T) {
	var completion openai.ChatCompletion
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "gpt-4o-mini",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": "Checking.",
				"tool_calls": [
					{"id": "call_9", "type": "function", "function": {"name": "add", "arguments": "{\"a\":1,\"b\":2}"}},
					{"id": "call_10", "type": "function", "function": {"name": "broken", "arguments": "{oops"}}
				]
			}
		}]
	}`), &completion))

	resp := cc.ParseCompletion(&completion)
	assert.Equal(t, "Checking.", resp.Text)
	require.Len(t, resp.ToolCalls, 2)
	assert.Equal(t, dispatch.ProviderToolCall{ID: "call_9", Name: "add", Arguments: `{"a":1,"b":2}`}, resp.ToolCalls[0])

	logger := &testutil.RecordingLogger{}
	_, calls := dispatch.NewNativeDispatcher(dispatch.WithLogger(logger)).ParseResponse(t.Context(), resp)
	require.Len(t, calls, 2)
	assert.Equal(t, "call_10", calls[1].CallID)
	assert.Empty(t, calls[1].Arguments)
	assert.Len(t, logger.Warnings(), 1)

	assert.Equal(t, dispatch.ChatResponse{}, cc.ParseCompletion(&openai.ChatCompletion{}))
}
