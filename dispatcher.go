// Package dispatch turns model replies into tool calls and tool results back
// into conversation history.
//
// Two protocols are supported. The text protocol embeds calls as pseudo-tags
// in the reply and is understood by any model. The native protocol relies on
// the provider's structured tool-call records. Both are served through the
// same Dispatcher interface so the host loop does not care which is active.
package dispatch

import (
	"context"
	"fmt"
	"strings"
)

// Dispatcher adapts one tool-calling protocol.
//
// Implementations are stateless and safe for concurrent use. ctx is only
// used to carry logging context.
type Dispatcher interface {
	// ParseResponse extracts narrative text and tool calls from a reply.
	// It never fails: malformed content degrades to text or empty arguments.
	ParseResponse(ctx context.Context, resp ChatResponse) (string, []ParsedToolCall)
	// FormatResults folds executed results into one history entry.
	FormatResults(results []ToolExecutionResult) ConversationMessage
	// PromptInstructions returns the text appended to the system prompt.
	PromptInstructions(tools []ToolSpec) string
	// ToProviderMessages renders canonical history as plain chat turns.
	ToProviderMessages(history []ConversationMessage) []ChatMessage
	// ShouldSendToolSpecs reports whether tool specs go to the provider API.
	ShouldSendToolSpecs() bool
}

// Protocol selects a Dispatcher variant.
type Protocol string

const (
	ProtocolText   Protocol = "text"
	ProtocolNative Protocol = "native"
)

// ParseProtocol validates s as a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch p := Protocol(strings.ToLower(strings.TrimSpace(s))); p {
	case ProtocolText, ProtocolNative:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProtocol, s)
	}
}

type options struct {
	logger Logger
}

// Option configures a Dispatcher.
type Option func(*options)

// WithLogger sets the logger used for diagnostics. nil means NopLogger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NopLogger{}
		}
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: NewClueLogger()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// New returns the dispatcher for protocol p.
func New(p Protocol, opts ...Option) (Dispatcher, error) {
	switch p {
	case ProtocolText:
		return NewTextDispatcher(opts...), nil
	case ProtocolNative:
		return NewNativeDispatcher(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, p)
	}
}

// ForProvider picks the native dispatcher when the provider supports
// structured tool calling and the text dispatcher otherwise.
func ForProvider(nativeToolCalling bool, opts ...Option) Dispatcher {
	if nativeToolCalling {
		return NewNativeDispatcher(opts...)
	}
	return NewTextDispatcher(opts...)
}
