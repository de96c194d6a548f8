package llm

import (
	"context"

	"github.com/BaSui01/llmbridge/types"
)

// ChatModel generates one assistant message per call.
type ChatModel interface {
	Generate(ctx context.Context, messages ...types.ChatMessage) (types.Response[*types.AiMessage], error)
	GenerateWithTools(ctx context.Context, messages []types.ChatMessage, tools []types.ToolSpecification) (types.Response[*types.AiMessage], error)
	// GenerateWithTool forces the model to call tool.
	GenerateWithTool(ctx context.Context, messages []types.ChatMessage, tool types.ToolSpecification) (types.Response[*types.AiMessage], error)
}

// EmbeddingModel embeds text. EmbedAll returns one vector per segment, in order.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) (types.Response[types.Embedding], error)
	EmbedAll(ctx context.Context, segments []types.TextSegment) (types.Response[[]types.Embedding], error)
}

// ImageModel generates images from a prompt.
type ImageModel interface {
	Generate(ctx context.Context, prompt string) (types.Response[types.Image], error)
	GenerateN(ctx context.Context, prompt string, n int) (types.Response[[]types.Image], error)
}

// ModerationModel classifies text against a provider's content policy.
type ModerationModel interface {
	ModerateText(ctx context.Context, text string) (types.Response[types.Moderation], error)
	ModerateMessages(ctx context.Context, messages []types.ChatMessage) (types.Response[types.Moderation], error)
}
