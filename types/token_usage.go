package types

// TokenUsage counts tokens for one call. Each count may be unknown (nil)
// when the provider did not report it. When all three are known,
// Total == Input + Output.
type TokenUsage struct {
	InputTokens  *int `json:"input_tokens,omitempty"`
	OutputTokens *int `json:"output_tokens,omitempty"`
	TotalTokens  *int `json:"total_tokens,omitempty"`
}

// NewTokenUsage creates a usage with known counts; the total is derived.
func NewTokenUsage(input, output int) TokenUsage {
	return TokenUsage{
		InputTokens:  intPtr(input),
		OutputTokens: intPtr(output),
		TotalTokens:  intPtr(input + output),
	}
}

// NewInputTokenUsage creates a usage where only the input count is known,
// which is what embedding endpoints report.
func NewInputTokenUsage(input int) TokenUsage {
	return TokenUsage{InputTokens: intPtr(input), TotalTokens: intPtr(input)}
}

// Add sums two usages. Unknown plus known is the known value; unknown plus
// unknown stays unknown.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:  addCounts(u.InputTokens, other.InputTokens),
		OutputTokens: addCounts(u.OutputTokens, other.OutputTokens),
		TotalTokens:  addCounts(u.TotalTokens, other.TotalTokens),
	}
}

// IsZero reports whether no count is known.
func (u TokenUsage) IsZero() bool {
	return u.InputTokens == nil && u.OutputTokens == nil && u.TotalTokens == nil
}

// Input returns the input count, 0 when unknown.
func (u TokenUsage) Input() int { return deref(u.InputTokens) }

// Output returns the output count, 0 when unknown.
func (u TokenUsage) Output() int { return deref(u.OutputTokens) }

// Total returns the total count, 0 when unknown.
func (u TokenUsage) Total() int { return deref(u.TotalTokens) }

func addCounts(a, b *int) *int {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return intPtr(*b)
	case b == nil:
		return intPtr(*a)
	}
	return intPtr(*a + *b)
}

func intPtr(v int) *int { return &v }

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
