package openai

import (
	"context"

	"github.com/BaSui01/llmbridge/types"
)

// EmbeddingModel is the embedding facade.
type EmbeddingModel struct {
	client *Client
	opts   EmbeddingOptions
}

// NewEmbeddingModel creates an embedding facade. client and opts are required.
func NewEmbeddingModel(client *Client, opts *EmbeddingOptions) (*EmbeddingModel, error) {
	if client == nil {
		return nil, types.NewContractError("openai embedding model: client is required")
	}
	if opts == nil {
		return nil, types.NewContractError("openai embedding model: options are required")
	}
	return &EmbeddingModel{client: client, opts: *opts}, nil
}

// Options returns a copy of the options.
func (m *EmbeddingModel) Options() EmbeddingOptions { return m.opts }

// Embed embeds one text.
func (m *EmbeddingModel) Embed(ctx context.Context, text string) (types.Response[types.Embedding], error) {
	all, err := m.EmbedAll(ctx, []types.TextSegment{types.NewTextSegment(text)})
	if err != nil {
		return types.Response[types.Embedding]{}, err
	}
	return types.Response[types.Embedding]{Content: all.Content[0], TokenUsage: all.TokenUsage}, nil
}

// EmbedAll embeds segments in order. Inputs beyond MaxEmbeddingInputs are
// split into sequential calls; any failed call aborts the whole batch.
func (m *EmbeddingModel) EmbedAll(ctx context.Context, segments []types.TextSegment) (types.Response[[]types.Embedding], error) {
	var zero types.Response[[]types.Embedding]
	if len(segments) == 0 {
		return zero, types.NewContractError("segments must not be empty")
	}

	out := make([]types.Embedding, 0, len(segments))
	var usage types.TokenUsage
	for start := 0; start < len(segments); start += MaxEmbeddingInputs {
		end := min(start+MaxEmbeddingInputs, len(segments))
		inputs := make([]string, 0, end-start)
		for _, s := range segments[start:end] {
			inputs = append(inputs, s.Text)
		}

		resp, err := m.client.Embeddings(ctx, m.opts.request(inputs))
		if err != nil {
			return zero, err
		}
		vectors, err := EmbeddingsFrom(resp, len(inputs))
		if err != nil {
			return zero, err
		}
		out = append(out, vectors...)
		usage = usage.Add(EmbeddingUsageFrom(resp.Usage))
	}
	return types.Response[[]types.Embedding]{Content: out, TokenUsage: usage}, nil
}
