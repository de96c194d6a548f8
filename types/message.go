package types

import (
	"strings"
)

// MessageType discriminates the ChatMessage variants.
type MessageType string

const (
	MessageTypeSystem              MessageType = "SYSTEM"
	MessageTypeUser                MessageType = "USER"
	MessageTypeAi                  MessageType = "AI"
	MessageTypeToolExecutionResult MessageType = "TOOL_EXECUTION_RESULT"
)

// ChatMessage is a closed sum type. The only implementations are
// *SystemMessage, *UserMessage, *AiMessage and *ToolExecutionResultMessage.
// Adapters switch over these four and reject anything else.
type ChatMessage interface {
	Type() MessageType
	isChatMessage()
}

// SystemMessage carries instructions for the model.
type SystemMessage struct {
	text string
}

// NewSystemMessage creates a system message.
func NewSystemMessage(text string) *SystemMessage {
	return &SystemMessage{text: text}
}

func (m *SystemMessage) Type() MessageType { return MessageTypeSystem }
func (m *SystemMessage) Text() string      { return m.text }
func (*SystemMessage) isChatMessage()      {}

// UserMessage is either a single text or an ordered list of content parts,
// optionally attributed to a named sender.
type UserMessage struct {
	name     string
	contents []Content
}

// NewUserMessage creates a text-only user message.
func NewUserMessage(text string) *UserMessage {
	return &UserMessage{contents: []Content{NewTextContent(text)}}
}

// NewNamedUserMessage creates a text-only user message with a sender name.
func NewNamedUserMessage(name, text string) *UserMessage {
	return &UserMessage{name: name, contents: []Content{NewTextContent(text)}}
}

// NewUserMessageContents creates a user message from content parts.
// At least one part is required.
func NewUserMessageContents(contents ...Content) (*UserMessage, error) {
	return NewNamedUserMessageContents("", contents...)
}

// NewNamedUserMessageContents creates a named user message from content parts.
func NewNamedUserMessageContents(name string, contents ...Content) (*UserMessage, error) {
	if len(contents) == 0 {
		return nil, NewContractError("user message requires at least one content part")
	}
	for i, c := range contents {
		if c == nil {
			return nil, NewContractError("user message content[%d] is nil", i)
		}
	}
	cp := make([]Content, len(contents))
	copy(cp, contents)
	return &UserMessage{name: name, contents: cp}, nil
}

func (m *UserMessage) Type() MessageType { return MessageTypeUser }
func (*UserMessage) isChatMessage()      {}

// Name returns the sender name, empty when unset.
func (m *UserMessage) Name() string { return m.name }

// Contents returns a copy of the content parts.
func (m *UserMessage) Contents() []Content {
	cp := make([]Content, len(m.contents))
	copy(cp, m.contents)
	return cp
}

// HasSingleText reports whether the message is exactly one text part.
func (m *UserMessage) HasSingleText() bool {
	if len(m.contents) != 1 {
		return false
	}
	_, ok := m.contents[0].(*TextContent)
	return ok
}

// SingleText returns the text of a single-text message. It returns an empty
// string when HasSingleText is false.
func (m *UserMessage) SingleText() string {
	if !m.HasSingleText() {
		return ""
	}
	return m.contents[0].(*TextContent).Text()
}

// HasImage reports whether any part is an image.
func (m *UserMessage) HasImage() bool {
	for _, c := range m.contents {
		if _, ok := c.(*ImageContent); ok {
			return true
		}
	}
	return false
}

// Texts returns the text parts in order.
func (m *UserMessage) Texts() []string {
	out := make([]string, 0, len(m.contents))
	for _, c := range m.contents {
		if tc, ok := c.(*TextContent); ok {
			out = append(out, tc.Text())
		}
	}
	return out
}

// Images returns the image parts in order.
func (m *UserMessage) Images() []*ImageContent {
	var out []*ImageContent
	for _, c := range m.contents {
		if ic, ok := c.(*ImageContent); ok {
			out = append(out, ic)
		}
	}
	return out
}

// JoinedText concatenates all text parts with newlines.
func (m *UserMessage) JoinedText() string {
	return strings.Join(m.Texts(), "\n")
}

// AiMessage is the model's reply: response text or a non-empty list of
// tool execution requests, never both.
type AiMessage struct {
	text                  string
	toolExecutionRequests []ToolExecutionRequest
}

// NewAiMessage creates a text reply.
func NewAiMessage(text string) *AiMessage {
	return &AiMessage{text: text}
}

// NewAiMessageWithToolRequests creates a reply that asks for tool execution.
func NewAiMessageWithToolRequests(requests ...ToolExecutionRequest) (*AiMessage, error) {
	if len(requests) == 0 {
		return nil, NewContractError("ai message requires at least one tool execution request")
	}
	cp := make([]ToolExecutionRequest, len(requests))
	copy(cp, requests)
	return &AiMessage{toolExecutionRequests: cp}, nil
}

func (m *AiMessage) Type() MessageType { return MessageTypeAi }
func (*AiMessage) isChatMessage()      {}

// Text returns the response text. Empty for tool-request replies.
func (m *AiMessage) Text() string { return m.text }

// HasToolExecutionRequests reports whether the reply requests tool calls.
func (m *AiMessage) HasToolExecutionRequests() bool { return len(m.toolExecutionRequests) > 0 }

// ToolExecutionRequests returns a copy of the requested tool calls, nil for text replies.
func (m *AiMessage) ToolExecutionRequests() []ToolExecutionRequest {
	if len(m.toolExecutionRequests) == 0 {
		return nil
	}
	cp := make([]ToolExecutionRequest, len(m.toolExecutionRequests))
	copy(cp, m.toolExecutionRequests)
	return cp
}

// ToolExecutionResultMessage returns a tool's output to the model. ID
// correlates it with the originating ToolExecutionRequest.
type ToolExecutionResultMessage struct {
	id       string
	toolName string
	text     string
}

// NewToolExecutionResultMessage creates a tool result message.
func NewToolExecutionResultMessage(id, toolName, text string) *ToolExecutionResultMessage {
	return &ToolExecutionResultMessage{id: id, toolName: toolName, text: text}
}

// ToolExecutionResultFor builds the result message answering req.
func ToolExecutionResultFor(req ToolExecutionRequest, text string) *ToolExecutionResultMessage {
	return NewToolExecutionResultMessage(req.ID, req.Name, text)
}

func (m *ToolExecutionResultMessage) Type() MessageType { return MessageTypeToolExecutionResult }
func (*ToolExecutionResultMessage) isChatMessage()      {}

func (m *ToolExecutionResultMessage) ID() string       { return m.id }
func (m *ToolExecutionResultMessage) ToolName() string { return m.toolName }
func (m *ToolExecutionResultMessage) Text() string     { return m.text }

// MessageText returns the textual payload of a message. User messages yield
// their joined text parts; tool-request replies yield an empty string.
func MessageText(m ChatMessage) (string, error) {
	switch msg := m.(type) {
	case *SystemMessage:
		return msg.Text(), nil
	case *UserMessage:
		return msg.JoinedText(), nil
	case *AiMessage:
		return msg.Text(), nil
	case *ToolExecutionResultMessage:
		return msg.Text(), nil
	case nil:
		return "", NewContractError("message is nil")
	default:
		return "", NewContractError("unsupported message type %T", m)
	}
}
