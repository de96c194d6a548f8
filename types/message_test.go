package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMessage_SingleText(t *testing.T) {
	t.Parallel()

	msg := NewNamedUserMessage("klaus", "What is the capital of Italy?")
	assert.Equal(t, MessageTypeUser, msg.Type())
	assert.Equal(t, "klaus", msg.Name())
	assert.True(t, msg.HasSingleText())
	assert.False(t, msg.HasImage())
	assert.Equal(t, "What is the capital of Italy?", msg.SingleText())
}

func TestUserMessage_MultipleParts(t *testing.T) {
	t.Parallel()

	img, err := NewImageContentFromURL("https://example.com/cat.png")
	require.NoError(t, err)

	msg, err := NewUserMessageContents(NewTextContent("What is in"), img, NewTextContent("this picture?"))
	require.NoError(t, err)

	assert.False(t, msg.HasSingleText())
	assert.Empty(t, msg.SingleText())
	assert.True(t, msg.HasImage())
	assert.Equal(t, []string{"What is in", "this picture?"}, msg.Texts())
	assert.Equal(t, "What is in\nthis picture?", msg.JoinedText())
	require.Len(t, msg.Images(), 1)
	assert.Equal(t, ImageDetailLow, msg.Images()[0].Detail())
}

func TestUserMessage_ContentsAreCopied(t *testing.T) {
	t.Parallel()

	parts := []Content{NewTextContent("a"), NewTextContent("b")}
	msg, err := NewUserMessageContents(parts...)
	require.NoError(t, err)

	parts[0] = NewTextContent("mutated")
	got := msg.Contents()
	got[1] = NewTextContent("mutated too")

	assert.Equal(t, []string{"a", "b"}, msg.Texts())
}

func TestUserMessage_RejectsEmptyAndNilParts(t *testing.T) {
	t.Parallel()

	_, err := NewUserMessageContents()
	assert.True(t, IsContractViolation(err))

	_, err = NewUserMessageContents(NewTextContent("ok"), nil)
	assert.True(t, IsContractViolation(err))
}

func TestAiMessage_TextOrToolRequests(t *testing.T) {
	t.Parallel()

	text := NewAiMessage("The capital of Italy is Rome.")
	assert.Equal(t, MessageTypeAi, text.Type())
	assert.False(t, text.HasToolExecutionRequests())
	assert.Nil(t, text.ToolExecutionRequests())

	req := ToolExecutionRequest{ID: "call_1", Name: "calculator", Arguments: `{"a":2,"b":2}`}
	tools, err := NewAiMessageWithToolRequests(req)
	require.NoError(t, err)
	assert.True(t, tools.HasToolExecutionRequests())
	assert.Empty(t, tools.Text())
	assert.Equal(t, []ToolExecutionRequest{req}, tools.ToolExecutionRequests())

	_, err = NewAiMessageWithToolRequests()
	assert.True(t, IsContractViolation(err))
}

func TestToolExecutionResultFor(t *testing.T) {
	t.Parallel()

	req := ToolExecutionRequest{ID: "call_0", Name: "calculator", Arguments: `{}`}
	res := ToolExecutionResultFor(req, "4")

	assert.Equal(t, MessageTypeToolExecutionResult, res.Type())
	assert.Equal(t, "call_0", res.ID())
	assert.Equal(t, "calculator", res.ToolName())
	assert.Equal(t, "4", res.Text())
}

type foreignMessage struct{ SystemMessage }

func TestMessageText(t *testing.T) {
	t.Parallel()

	tools, err := NewAiMessageWithToolRequests(ToolExecutionRequest{Name: "x"})
	require.NoError(t, err)

	tests := []struct {
		name string
		msg  ChatMessage
		want string
	}{
		{name: "system", msg: NewSystemMessage("be brief"), want: "be brief"},
		{name: "user", msg: NewUserMessage("hi"), want: "hi"},
		{name: "ai text", msg: NewAiMessage("hello"), want: "hello"},
		{name: "ai tools", msg: tools, want: ""},
		{name: "tool result", msg: NewToolExecutionResultMessage("1", "x", "42"), want: "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MessageText(tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = MessageText(nil)
	assert.True(t, IsContractViolation(err))

	_, err = MessageText(&foreignMessage{})
	assert.True(t, IsContractViolation(err))
}

func TestImage_ValidateSource(t *testing.T) {
	t.Parallel()

	_, err := NewImageContent(Image{}, "")
	assert.True(t, IsContractViolation(err))

	ic, err := NewImageContentFromBase64("aGVsbG8=", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ic.Image().MimeType)

	withURL, err := NewImageContentFromURL("https://example.com/a.png")
	require.NoError(t, err)
	both := withURL.Image()
	both.Base64Data = "aGVsbG8="
	assert.True(t, IsContractViolation(both.ValidateSource()))
}
