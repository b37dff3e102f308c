// Package testutil provides common fixtures for dispatcher and provider tests.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspirepan/dispatch"
)

// CalculatorTool is a simple tool with a strict schema.
type CalculatorTool struct{}

func (CalculatorTool) Spec() dispatch.ToolSpec {
	return dispatch.ToolSpec{
		Name:        "add",
		Description: "Add two numbers together",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number", "description": "First number"},
				"b": map[string]any{"type": "number", "description": "Second number"},
			},
			"required": []any{"a", "b"},
		},
	}
}

func (CalculatorTool) Execute(_ context.Context, call dispatch.ParsedToolCall) (dispatch.ToolExecutionResult, error) {
	raw, err := call.ArgsJSON()
	if err != nil {
		return dispatch.ToolExecutionResult{}, err
	}
	var args struct {
		A float64 `json:"a"`
		B float64 `json:"b"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return dispatch.ToolExecutionResult{}, err
	}
	return dispatch.ToolExecutionResult{
		Name:    call.Name,
		Output:  fmt.Sprintf("%.2f", args.A+args.B),
		Success: true,
		CallID:  call.CallID,
	}, nil
}

// ErrToolNotFound is returned by Registry for unregistered names.
var ErrToolNotFound = errors.New("tool not found")

// Registry is an Executor that routes calls by name and records them.
type Registry struct {
	mu    sync.Mutex
	tools map[string]dispatch.ExecutorFunc
	Calls []dispatch.ParsedToolCall
}

// NewRegistry returns a registry with the calculator and an echo tool.
func NewRegistry() *Registry {
	r := &Registry{tools: map[string]dispatch.ExecutorFunc{}}
	r.Register("add", CalculatorTool{}.Execute)
	r.Register("echo", func(_ context.Context, call dispatch.ParsedToolCall) (dispatch.ToolExecutionResult, error) {
		text, _ := call.Arguments["text"].(string)
		return dispatch.ToolExecutionResult{Name: call.Name, Output: text, Success: true, CallID: call.CallID}, nil
	})
	return r
}

func (r *Registry) Register(name string, fn dispatch.ExecutorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = fn
}

func (r *Registry) Execute(ctx context.Context, call dispatch.ParsedToolCall) (dispatch.ToolExecutionResult, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, call)
	fn, ok := r.tools[call.Name]
	r.mu.Unlock()
	if !ok {
		return dispatch.ToolExecutionResult{}, fmt.Errorf("%w: %s", ErrToolNotFound, call.Name)
	}
	return fn(ctx, call)
}

// LogEntry is one recorded log call.
type LogEntry struct {
	Level   string
	Msg     string
	KeyVals []any
}

// Value returns the value logged under key, or nil.
func (e LogEntry) Value(key string) any {
	for i := 0; i+1 < len(e.KeyVals); i += 2 {
		if k, ok := e.KeyVals[i].(string); ok && k == key {
			return e.KeyVals[i+1]
		}
	}
	return nil
}

// RecordingLogger is a dispatch.Logger that keeps every entry.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (l *RecordingLogger) Debug(_ context.Context, msg string, keyvals ...any) {
	l.record("debug", msg, keyvals)
}

func (l *RecordingLogger) Warn(_ context.Context, msg string, keyvals ...any) {
	l.record("warn", msg, keyvals)
}

func (l *RecordingLogger) record(level, msg string, keyvals []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, KeyVals: keyvals})
}

// Warnings returns the recorded warnings in order.
func (l *RecordingLogger) Warnings() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.entries {
		if e.Level == "warn" {
			out = append(out, e)
		}
	}
	return out
}

// SampleHistory covers every ConversationMessage variant.
func SampleHistory() []dispatch.ConversationMessage {
	return []dispatch.ConversationMessage{
		dispatch.Chat{Message: dispatch.SystemMessage("You are helpful.")},
		dispatch.Chat{Message: dispatch.UserMessage("What is 2+3?")},
		dispatch.AssistantToolCalls{
			Text: "Let me add.",
			ToolCalls: []dispatch.ProviderToolCall{
				{ID: "call_1", Name: "add", Arguments: `{"a":2,"b":3}`},
			},
		},
		dispatch.ToolResults{Results: []dispatch.ToolResultMessage{{CallID: "call_1", Content: "5.00"}}},
		dispatch.Chat{Message: dispatch.AssistantMessage("It is 5.")},
	}
}

// TestDispatcherContract checks the behaviour shared by every dispatcher.
func TestDispatcherContract(t *testing.T, d dispatch.Dispatcher) {
	t.Helper()

	history := SampleHistory()
	first := d.ToProviderMessages(history)
	second := d.ToProviderMessages(history)
	assert.Equal(t, first, second, "rendering must be idempotent")
	require.GreaterOrEqual(t, len(first), len(history), "no history entry may be dropped")

	results := []dispatch.ToolExecutionResult{
		{Name: "add", Output: "first output", Success: true, CallID: "c1"},
		{Name: "echo", Output: "second output", Success: false, CallID: "c2"},
	}
	msgs := d.ToProviderMessages([]dispatch.ConversationMessage{d.FormatResults(results)})
	var all strings.Builder
	for _, m := range msgs {
		all.WriteString(m.Content)
	}
	content := all.String()
	for _, r := range results {
		assert.Equal(t, 1, strings.Count(content, r.Output), "output %q must appear once", r.Output)
	}
	assert.Less(t, strings.Index(content, "first output"), strings.Index(content, "second output"))
}
