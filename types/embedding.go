package types

import "maps"

// Embedding is a dense vector.
type Embedding struct {
	Vector []float32 `json:"vector"`
}

// NewEmbedding wraps vector without copying it.
func NewEmbedding(vector []float32) Embedding {
	return Embedding{Vector: vector}
}

// EmbeddingFromFloat64 narrows a float64 vector as decoded from JSON.
func EmbeddingFromFloat64(vector []float64) Embedding {
	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(v)
	}
	return Embedding{Vector: out}
}

// Dimension returns the vector length.
func (e Embedding) Dimension() int { return len(e.Vector) }

// Float64 widens the vector for stores whose wire format uses doubles.
func (e Embedding) Float64() []float64 {
	out := make([]float64, len(e.Vector))
	for i, v := range e.Vector {
		out[i] = float64(v)
	}
	return out
}

// Metadata is the string key/value map attached to a text segment.
type Metadata map[string]string

// Get returns the value for key, empty when absent.
func (m Metadata) Get(key string) string { return m[key] }

// Copy returns an independent copy; nil stays nil.
func (m Metadata) Copy() Metadata {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// TextSegment is a piece of text with its metadata.
type TextSegment struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// NewTextSegment creates a segment without metadata.
func NewTextSegment(text string) TextSegment {
	return TextSegment{Text: text}
}

// NewTextSegmentWithMetadata creates a segment, copying metadata.
func NewTextSegmentWithMetadata(text string, metadata Metadata) TextSegment {
	return TextSegment{Text: text, Metadata: metadata.Copy()}
}

// TextSegments wraps plain texts as segments.
func TextSegments(texts ...string) []TextSegment {
	out := make([]TextSegment, len(texts))
	for i, t := range texts {
		out[i] = NewTextSegment(t)
	}
	return out
}

// EmbeddingMatch is one result of a relevance search. Score is in [0,1],
// higher is more relevant. Embedded is nil when no segment was stored.
type EmbeddingMatch struct {
	Score       float64      `json:"score"`
	EmbeddingID string       `json:"embedding_id"`
	Embedding   Embedding    `json:"embedding"`
	Embedded    *TextSegment `json:"embedded,omitempty"`
}
