package ollama

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/llmbridge/llm/providers"
	"github.com/BaSui01/llmbridge/types"
)

// ChatModel is the chat facade. Safe for concurrent use.
type ChatModel struct {
	client *Client
	opts   ChatOptions
	loader *providers.ImageLoader
	logger *zap.Logger
}

// NewChatModel creates a chat facade. client and opts are required.
func NewChatModel(client *Client, opts *ChatOptions) (*ChatModel, error) {
	if client == nil {
		return nil, types.NewContractError("ollama chat model: client is required")
	}
	if opts == nil {
		return nil, types.NewContractError("ollama chat model: options are required")
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

func (m *ChatModel) Generate(ctx context.Context, messages ...types.ChatMessage) (types.Response[*types.AiMessage], error) {
	return m.generate(ctx, messages, nil)
}

func (m *ChatModel) GenerateWithTools(ctx context.Context, messages []types.ChatMessage, tools []types.ToolSpecification) (types.Response[*types.AiMessage], error) {
	return m.generate(ctx, messages, tools)
}

// GenerateWithTool offers tool as the only choice. Ollama has no tool_choice
// field, so the model may still answer in text.
func (m *ChatModel) GenerateWithTool(ctx context.Context, messages []types.ChatMessage, tool types.ToolSpecification) (types.Response[*types.AiMessage], error) {
	return m.generate(ctx, messages, []types.ToolSpecification{tool})
}

func (m *ChatModel) generate(ctx context.Context, messages []types.ChatMessage, tools []types.ToolSpecification) (types.Response[*types.AiMessage], error) {
	var zero types.Response[*types.AiMessage]
	if len(messages) == 0 {
		return zero, types.NewContractError("messages must not be empty")
	}

	kept, dropped := SupportedMessages(messages, len(tools) > 0)
	if dropped > 0 {
		m.logger.Debug("dropped tool messages from a request without tools", zap.Int("dropped", dropped))
	}
	if len(kept) == 0 {
		return zero, types.NewContractError("no messages left after removing tool messages")
	}

	wireMessages, err := ToWireMessages(ctx, m.loader, kept)
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

	resp, err := m.client.Chat(ctx, req)
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
