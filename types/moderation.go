package types

// Moderation is the verdict of a moderation call. FlaggedText is the first
// input that was flagged.
type Moderation struct {
	Flagged     bool   `json:"flagged"`
	FlaggedText string `json:"flagged_text,omitempty"`
}

// NotFlagged is the verdict for clean input.
func NotFlagged() Moderation { return Moderation{} }

// FlaggedFor is the verdict for input flagged because of text.
func FlaggedFor(text string) Moderation {
	return Moderation{Flagged: true, FlaggedText: text}
}
