package tokenizer

import (
	"fmt"

	"github.com/BaSui01/llmbridge/types"
)

// Tokenizer estimates how many tokens a request will consume.
type Tokenizer interface {
	// CountTokens 返回给定文本的 token 数.
	CountTokens(text string) (int, error)

	// CountMessages 返回消息列表的总 token 数，包括每条消息的开销和回复引导。
	CountMessages(messages []types.ChatMessage) (int, error)

	// CountToolSpecifications 返回工具定义占用的 token 数.
	CountToolSpecifications(specs []types.ToolSpecification) (int, error)

	// MaxTokens 返回模型的最大上下文长度.
	MaxTokens() int

	// Name 返回分词器的名称.
	Name() string
}

// ForModel returns a tiktoken tokenizer for known OpenAI models and the
// character estimator for anything else, e.g. Ollama models.
func ForModel(model string) Tokenizer {
	if _, ok := lookupEncoding(model); ok {
		return NewTiktokenTokenizer(model)
	}
	return NewEstimatorTokenizer(model, 0)
}

// Per-message framing overhead, following OpenAI's published counting recipe.
const (
	tokensPerMessage = 3
	tokensPerName    = 1
	replyPrimer      = 3

	lowDetailImageTokens  = 85
	highDetailImageTokens = 765
)

// countMessages applies the framing rules on top of a text counter.
func countMessages(count func(string) (int, error), messages []types.ChatMessage) (int, error) {
	total := replyPrimer
	for i, m := range messages {
		parts, fixed, err := messageParts(m)
		if err != nil {
			return 0, fmt.Errorf("message %d: %w", i, err)
		}
		total += tokensPerMessage + fixed
		for _, p := range parts {
			if p == "" {
				continue
			}
			n, err := count(p)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	return total, nil
}

// messageParts returns the texts that are tokenized for m plus a fixed
// token cost for names and images.
func messageParts(m types.ChatMessage) ([]string, int, error) {
	switch msg := m.(type) {
	case *types.SystemMessage:
		return []string{"system", msg.Text()}, 0, nil
	case *types.UserMessage:
		parts := append([]string{"user", msg.Name()}, msg.Texts()...)
		fixed := 0
		if msg.Name() != "" {
			fixed += tokensPerName
		}
		for _, img := range msg.Images() {
			if img.Detail() == types.ImageDetailLow {
				fixed += lowDetailImageTokens
			} else {
				fixed += highDetailImageTokens
			}
		}
		return parts, fixed, nil
	case *types.AiMessage:
		parts := []string{"assistant", msg.Text()}
		for _, req := range msg.ToolExecutionRequests() {
			parts = append(parts, req.Name, req.Arguments)
		}
		return parts, 0, nil
	case *types.ToolExecutionResultMessage:
		return []string{"tool", msg.Text()}, 0, nil
	}
	return nil, 0, types.NewContractError("unsupported message type %T", m)
}

func countToolSpecifications(count func(string) (int, error), specs []types.ToolSpecification) (int, error) {
	total := 0
	for _, s := range specs {
		params, err := s.ParametersOrEmpty().ToJSON()
		if err != nil {
			return 0, err
		}
		for _, part := range []string{s.Name, s.Description, string(params)} {
			if part == "" {
				continue
			}
			n, err := count(part)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	return total, nil
}
