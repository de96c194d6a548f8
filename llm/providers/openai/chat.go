package openai

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/llmbridge/llm/providers"
	"github.com/BaSui01/llmbridge/types"
)

// ChatModel is the chat facade. It holds only its client and a private copy
// of its options, so one instance may be shared across goroutines.
type ChatModel struct {
	client *Client
	opts   ChatOptions
	loader *providers.ImageLoader
	logger *zap.Logger
}

// NewChatModel creates a chat facade. client and opts are required.
func NewChatModel(client *Client, opts *ChatOptions) (*ChatModel, error) {
	if client == nil {
		return nil, types.NewContractError("openai chat model: client is required")
	}
	if opts == nil {
		return nil, types.NewContractError("openai chat model: options are required")
	}
	return &ChatModel{
		client: client,
		opts:   opts.clone(),
		loader: providers.NewImageLoader(client.HTTPClient()),
		logger: client.logger.With(zap.String("component", "chat_model")),
	}, nil
}

// Options returns a copy of the options.
func (m *ChatModel) Options() ChatOptions { return m.opts.clone() }

// Generate answers messages without tools.
func (m *ChatModel) Generate(ctx context.Context, messages ...types.ChatMessage) (types.Response[*types.AiMessage], error) {
	return m.generate(ctx, messages, nil, nil)
}

// GenerateWithTools lets the model choose among tools.
func (m *ChatModel) GenerateWithTools(ctx context.Context, messages []types.ChatMessage, tools []types.ToolSpecification) (types.Response[*types.AiMessage], error) {
	return m.generate(ctx, messages, tools, nil)
}

// GenerateWithTool forces the model to call tool.
func (m *ChatModel) GenerateWithTool(ctx context.Context, messages []types.ChatMessage, tool types.ToolSpecification) (types.Response[*types.AiMessage], error) {
	return m.generate(ctx, messages, []types.ToolSpecification{tool}, &tool)
}

func (m *ChatModel) generate(ctx context.Context, messages []types.ChatMessage, tools []types.ToolSpecification, forced *types.ToolSpecification) (types.Response[*types.AiMessage], error) {
	var zero types.Response[*types.AiMessage]
	if len(messages) == 0 {
		return zero, types.NewContractError("messages must not be empty")
	}

	wireMessages, err := ToWireMessages(ctx, m.loader, messages)
	if err != nil {
		return zero, err
	}
	wireTools, err := ToWireTools(tools)
	if err != nil {
		return zero, err
	}

	req := m.opts.request()
	req.Messages = wireMessages
	req.Tools = wireTools
	if forced != nil {
		req.ToolChoice = ToolChoiceFor(*forced)
	}

	resp, err := m.client.ChatCompletion(ctx, req)
	if err != nil {
		return zero, err
	}
	out, err := FromWire(resp)
	if err != nil {
		return zero, err
	}
	m.logger.Debug("chat completed",
		zap.String("model", resp.Model),
		zap.String("finish_reason", string(out.FinishReason)),
		zap.Int("total_tokens", out.TokenUsage.Total()),
	)
	return out, nil
}
