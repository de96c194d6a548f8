package rag

import (
	"context"

	"github.com/BaSui01/llmbridge/types"
)

// EmbeddingStore stores embeddings, optionally with the text they were
// computed from, and finds the ones most similar to a reference vector.
type EmbeddingStore interface {
	// Add stores emb under a generated id and returns it.
	Add(ctx context.Context, emb types.Embedding) (string, error)
	// AddWithID stores emb under the caller's id.
	AddWithID(ctx context.Context, id string, emb types.Embedding) error
	// AddWithSegment stores emb with its text under a generated id.
	AddWithSegment(ctx context.Context, emb types.Embedding, segment types.TextSegment) (string, error)
	// AddAll stores embs under generated ids, returned in input order.
	AddAll(ctx context.Context, embs []types.Embedding) ([]string, error)
	// AddAllWithSegments pairs embs and segments by position.
	AddAllWithSegments(ctx context.Context, embs []types.Embedding, segments []types.TextSegment) ([]string, error)
	// FindRelevant returns at most maxResults matches scoring at least
	// minScore, highest score first.
	FindRelevant(ctx context.Context, reference types.Embedding, maxResults int, minScore float64) ([]types.EmbeddingMatch, error)
}

// insertFunc writes one batch. segments is nil or parallel to embs.
type insertFunc func(ctx context.Context, ids []string, embs []types.Embedding, segments []types.TextSegment) error

// adder implements the Add family on top of a single batch insert. newID,
// when set, derives an id from the segment instead of generating one.
type adder struct {
	insert insertFunc
	newID  func(segment *types.TextSegment) string
}

func (a adder) ids(segments []types.TextSegment, n int) []string {
	if a.newID == nil {
		return GenerateIDs(n)
	}
	ids := make([]string, n)
	for i := range ids {
		var seg *types.TextSegment
		if segments != nil {
			seg = &segments[i]
		}
		ids[i] = a.newID(seg)
	}
	return ids
}

func (a adder) Add(ctx context.Context, emb types.Embedding) (string, error) {
	ids, err := a.AddAll(ctx, []types.Embedding{emb})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (a adder) AddWithID(ctx context.Context, id string, emb types.Embedding) error {
	if id == "" {
		return types.NewContractError("id must not be empty")
	}
	return a.insert(ctx, []string{id}, []types.Embedding{emb}, nil)
}

func (a adder) AddWithSegment(ctx context.Context, emb types.Embedding, segment types.TextSegment) (string, error) {
	ids, err := a.AddAllWithSegments(ctx, []types.Embedding{emb}, []types.TextSegment{segment})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (a adder) AddAll(ctx context.Context, embs []types.Embedding) ([]string, error) {
	return a.addAll(ctx, embs, nil)
}

func (a adder) AddAllWithSegments(ctx context.Context, embs []types.Embedding, segments []types.TextSegment) ([]string, error) {
	if segments == nil {
		segments = []types.TextSegment{}
	}
	return a.addAll(ctx, embs, segments)
}

func (a adder) addAll(ctx context.Context, embs []types.Embedding, segments []types.TextSegment) ([]string, error) {
	if err := checkParallel(embs, segments); err != nil {
		return nil, err
	}
	ids := a.ids(segments, len(embs))
	if err := a.insert(ctx, ids, embs, segments); err != nil {
		return nil, err
	}
	return ids, nil
}
