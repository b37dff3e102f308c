package dispatch

import (
	"context"
)

// Executor runs a parsed tool call. It is owned by the tool registry.
type Executor interface {
	Execute(ctx context.Context, call ParsedToolCall) (ToolExecutionResult, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, call ParsedToolCall) (ToolExecutionResult, error)

func (f ExecutorFunc) Execute(ctx context.Context, call ParsedToolCall) (ToolExecutionResult, error) {
	return f(ctx, call)
}

// StepRequest configures the handling of one model reply.
type StepRequest struct {
	Dispatcher Dispatcher
	Response   ChatResponse
	Executor   Executor
}

// StepResult contains the parsed reply, tool results and the history
// entries to append.
type StepResult struct {
	Text        string
	Calls       []ParsedToolCall
	Results     []ToolExecutionResult
	NewMessages []ConversationMessage
	Cancelled   bool
}

// HasToolCalls reports whether the reply asked for tools. When it did not,
// the host loop is done with this turn.
func (r StepResult) HasToolCalls() bool { return len(r.Calls) > 0 }

// Step parses one reply, executes its calls in order and folds the results.
//
// The assistant entry is AssistantToolCalls when the provider returned
// structured calls and a plain assistant turn carrying the raw reply
// otherwise, so text-protocol models see their own tags on the next turn.
func Step(ctx context.Context, req StepRequest) (StepResult, error) {
	if req.Dispatcher == nil {
		return StepResult{}, ErrNoDispatcher
	}
	text, calls := req.Dispatcher.ParseResponse(ctx, req.Response)
	res := StepResult{Text: text, Calls: calls}

	if len(calls) == 0 {
		if req.Response.Text != "" {
			res.NewMessages = append(res.NewMessages, Chat{Message: AssistantMessage(req.Response.Text)})
		}
		return res, nil
	}
	if req.Executor == nil {
		return StepResult{}, ErrNoExecutor
	}

	res.NewMessages = append(res.NewMessages, assistantEntry(req.Response))
	res.Results, res.Cancelled = executeCalls(ctx, req.Executor, calls)
	res.NewMessages = append(res.NewMessages, req.Dispatcher.FormatResults(res.Results))
	return res, nil
}

func assistantEntry(resp ChatResponse) ConversationMessage {
	if resp.HasToolCalls() {
		return AssistantToolCalls{Text: resp.Text, ToolCalls: resp.ToolCalls}
	}
	return Chat{Message: AssistantMessage(resp.Text)}
}

func executeCalls(ctx context.Context, exec Executor, calls []ParsedToolCall) ([]ToolExecutionResult, bool) {
	results := make([]ToolExecutionResult, len(calls))
	cancelled := false
	for i, call := range calls {
		if ctx.Err() != nil {
			cancelled = true
			results[i] = interruptedToolResult(call)
			continue
		}
		results[i] = executeSingleTool(ctx, exec, call)
	}
	if ctx.Err() != nil {
		cancelled = true
	}
	return results, cancelled
}

func executeSingleTool(ctx context.Context, exec Executor, call ParsedToolCall) ToolExecutionResult {
	toolCtx, cancel := context.WithCancel(ctx)
	res, err := exec.Execute(toolCtx, call)
	cancel()
	if err != nil {
		return errorToolResult(call, err)
	}
	if res.Name == "" {
		res.Name = call.Name
	}
	if res.CallID == "" {
		res.CallID = call.CallID
	}
	return res
}

func interruptedToolResult(call ParsedToolCall) ToolExecutionResult {
	return ToolExecutionResult{
		Name:   call.Name,
		Output: "user interrupted the tool call",
		CallID: call.CallID,
	}
}

func errorToolResult(call ParsedToolCall, err error) ToolExecutionResult {
	return ToolExecutionResult{
		Name:   call.Name,
		Output: err.Error(),
		CallID: call.CallID,
	}
}
