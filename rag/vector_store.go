package rag

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/llmbridge/types"
)

// InMemoryStore keeps embeddings in process memory and scores them by
// cosine similarity mapped onto [0,1]. Useful for tests and small corpora.
type InMemoryStore struct {
	adder

	mu      sync.RWMutex
	entries []memoryEntry
	index   map[string]int
	logger  *zap.Logger
}

type memoryEntry struct {
	id        string
	embedding types.Embedding
	segment   *types.TextSegment
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore(logger *zap.Logger) *InMemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &InMemoryStore{
		index:  make(map[string]int),
		logger: logger.With(zap.String("component", "memory_store")),
	}
	s.adder = adder{insert: s.insert}
	return s
}

// insert replaces entries whose id already exists.
func (s *InMemoryStore) insert(_ context.Context, ids []string, embs []types.Embedding, segments []types.TextSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, id := range ids {
		e := memoryEntry{id: id, embedding: types.NewEmbedding(slices.Clone(embs[i].Vector))}
		if segments != nil {
			seg := types.NewTextSegmentWithMetadata(segments[i].Text, segments[i].Metadata)
			e.segment = &seg
		}
		if pos, ok := s.index[id]; ok {
			s.entries[pos] = e
			continue
		}
		s.index[id] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	s.logger.Debug("embeddings added", zap.Int("count", len(ids)))
	return nil
}

// FindRelevant scans every entry.
func (s *InMemoryStore) FindRelevant(ctx context.Context, reference types.Embedding, maxResults int, minScore float64) ([]types.EmbeddingMatch, error) {
	if err := ValidateRelevanceQuery(maxResults, minScore); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matches := make([]types.EmbeddingMatch, 0, len(s.entries))
	for _, e := range s.entries {
		m := types.EmbeddingMatch{
			Score:       ScoreFromCosineSimilarity(cosineSimilarity(reference.Vector, e.embedding.Vector)),
			EmbeddingID: e.id,
			Embedding:   e.embedding,
		}
		if e.segment != nil {
			seg := *e.segment
			m.Embedded = &seg
		}
		matches = append(matches, m)
	}
	s.mu.RUnlock()

	return RankMatches(matches, maxResults, minScore), nil
}

// Remove deletes the given ids; unknown ids are ignored.
func (s *InMemoryStore) Remove(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	s.entries = slices.DeleteFunc(s.entries, func(e memoryEntry) bool {
		_, ok := drop[e.id]
		return ok
	})
	clear(s.index)
	for i, e := range s.entries {
		s.index[e.id] = i
	}
}

// Len returns the number of stored embeddings.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
