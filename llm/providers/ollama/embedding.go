package ollama

import (
	"context"
	"fmt"

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
		return nil, types.NewContractError("ollama embedding model: client is required")
	}
	if opts == nil {
		return nil, types.NewContractError("ollama embedding model: options are required")
	}
	return &EmbeddingModel{client: client, opts: *opts}, nil
}

func (m *EmbeddingModel) Options() EmbeddingOptions { return m.opts }

func (m *EmbeddingModel) Embed(ctx context.Context, text string) (types.Response[types.Embedding], error) {
	emb, err := m.embed(ctx, text)
	if err != nil {
		return types.Response[types.Embedding]{}, err
	}
	return types.NewResponse(emb), nil
}

// EmbedAll issues one call per segment, in order. The first failure aborts
// the batch and names the failing segment.
func (m *EmbeddingModel) EmbedAll(ctx context.Context, segments []types.TextSegment) (types.Response[[]types.Embedding], error) {
	var zero types.Response[[]types.Embedding]
	if len(segments) == 0 {
		return zero, types.NewContractError("segments must not be empty")
	}
	out := make([]types.Embedding, 0, len(segments))
	for i, s := range segments {
		emb, err := m.embed(ctx, s.Text)
		if err != nil {
			return zero, fmt.Errorf("embedding segment %d of %d: %w", i, len(segments), err)
		}
		out = append(out, emb)
	}
	// /api/embeddings reports no token counts, so usage stays unknown.
	return types.NewResponse(out), nil
}

func (m *EmbeddingModel) embed(ctx context.Context, text string) (types.Embedding, error) {
	resp, err := m.client.Embeddings(ctx, &EmbeddingRequest{
		Model:     m.opts.ModelName,
		Prompt:    text,
		KeepAlive: m.opts.KeepAlive,
	})
	if err != nil {
		return types.Embedding{}, err
	}
	return EmbeddingFrom(resp)
}
