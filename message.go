package dispatch

import (
	"encoding/json"
	"fmt"
)

// Role is the speaker role of a chat turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a plain chat turn as sent to a provider.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func SystemMessage(content string) ChatMessage    { return ChatMessage{Role: RoleSystem, Content: content} }
func UserMessage(content string) ChatMessage      { return ChatMessage{Role: RoleUser, Content: content} }
func AssistantMessage(content string) ChatMessage { return ChatMessage{Role: RoleAssistant, Content: content} }

// ToolResultMessage is one result record keyed by the originating call id.
type ToolResultMessage struct {
	CallID  string `json:"call_id"`
	Content string `json:"content"`
}

// MessageKind discriminates the variants of ConversationMessage.
type MessageKind string

const (
	KindChat               MessageKind = "chat"
	KindAssistantToolCalls MessageKind = "assistant_tool_calls"
	KindToolResults        MessageKind = "tool_results"
)

// ConversationMessage is the canonical, protocol-agnostic history entry.
// It is implemented by Chat, AssistantToolCalls and ToolResults only.
type ConversationMessage interface {
	kind() MessageKind
}

// Chat is a single plain turn.
type Chat struct {
	Message ChatMessage `json:"message"`
}

func (Chat) kind() MessageKind { return KindChat }

func (m Chat) MarshalJSON() ([]byte, error) {
	type alias Chat
	return json.Marshal(struct {
		Kind MessageKind `json:"kind"`
		alias
	}{KindChat, alias(m)})
}

// AssistantToolCalls is an assistant turn that issued native tool calls.
// An empty Text means the turn carried no text.
type AssistantToolCalls struct {
	Text      string             `json:"text,omitempty"`
	ToolCalls []ProviderToolCall `json:"tool_calls"`
}

func (AssistantToolCalls) kind() MessageKind { return KindAssistantToolCalls }

func (m AssistantToolCalls) MarshalJSON() ([]byte, error) {
	type alias AssistantToolCalls
	return json.Marshal(struct {
		Kind MessageKind `json:"kind"`
		alias
	}{KindAssistantToolCalls, alias(m)})
}

// ToolResults is an ordered batch of tool results.
type ToolResults struct {
	Results []ToolResultMessage `json:"results"`
}

func (ToolResults) kind() MessageKind { return KindToolResults }

func (m ToolResults) MarshalJSON() ([]byte, error) {
	type alias ToolResults
	return json.Marshal(struct {
		Kind MessageKind `json:"kind"`
		alias
	}{KindToolResults, alias(m)})
}

// KindOf returns the discriminator of m.
func KindOf(m ConversationMessage) MessageKind {
	if m == nil {
		return ""
	}
	return m.kind()
}

// UnmarshalConversationMessage decodes a JSON object into a concrete ConversationMessage.
func UnmarshalConversationMessage(data []byte) (ConversationMessage, error) {
	var raw struct {
		Kind MessageKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	switch raw.Kind {
	case KindChat:
		var m Chat
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	case KindAssistantToolCalls:
		var m AssistantToolCalls
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	case KindToolResults:
		var m ToolResults
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown message kind: %s", raw.Kind)
	}
}

// UnmarshalHistory decodes a JSON array of conversation messages.
func UnmarshalHistory(data []byte) ([]ConversationMessage, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	history := make([]ConversationMessage, 0, len(raws))
	for _, raw := range raws {
		m, err := UnmarshalConversationMessage(raw)
		if err != nil {
			return nil, err
		}
		history = append(history, m)
	}
	return history, nil
}

// canonical dereferences pointer variants so callers can switch on values.
func canonical(m ConversationMessage) ConversationMessage {
	switch v := m.(type) {
	case *Chat:
		if v != nil {
			return *v
		}
	case *AssistantToolCalls:
		if v != nil {
			return *v
		}
	case *ToolResults:
		if v != nil {
			return *v
		}
	}
	return m
}
