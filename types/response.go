package types

// FinishReason says why generation stopped. The zero value means the
// provider did not report a reason.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "STOP"
	FinishReasonLength        FinishReason = "LENGTH"
	FinishReasonToolExecution FinishReason = "TOOL_EXECUTION"
	FinishReasonContentFilter FinishReason = "CONTENT_FILTER"
)

// Response is the provider-agnostic result of a model call.
type Response[T any] struct {
	Content      T            `json:"content"`
	TokenUsage   TokenUsage   `json:"token_usage"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
}

// NewResponse creates a response without usage or finish reason.
func NewResponse[T any](content T) Response[T] {
	return Response[T]{Content: content}
}
