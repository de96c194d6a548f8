package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BaSui01/llmbridge/llm/providers"
	"github.com/BaSui01/llmbridge/types"
)

// SupportedMessages drops the messages Ollama cannot correlate. Without
// tools on the request, tool results and tool-calling assistant turns have
// nothing to refer to and are removed. It returns the kept messages and the
// number dropped.
func SupportedMessages(messages []types.ChatMessage, toolsEnabled bool) ([]types.ChatMessage, int) {
	if toolsEnabled {
		return messages, 0
	}
	kept := make([]types.ChatMessage, 0, len(messages))
	for _, m := range messages {
		switch msg := m.(type) {
		case *types.ToolExecutionResultMessage:
			continue
		case *types.AiMessage:
			if msg.HasToolExecutionRequests() {
				continue
			}
		}
		kept = append(kept, m)
	}
	return kept, len(messages) - len(kept)
}

// ToWireMessages converts domain messages. Text parts of a user message are
// joined with newlines; every image is sent as base64, fetching or reading
// URL sources through loader.
func ToWireMessages(ctx context.Context, loader *providers.ImageLoader, messages []types.ChatMessage) ([]Message, error) {
	out := make([]Message, 0, len(messages))
	for i, m := range messages {
		var (
			wm  Message
			err error
		)
		switch msg := m.(type) {
		case *types.SystemMessage:
			wm = Message{Role: RoleSystem, Content: msg.Text()}
		case *types.UserMessage:
			wm, err = userMessage(ctx, loader, msg)
		case *types.AiMessage:
			wm, err = assistantMessage(msg)
		case *types.ToolExecutionResultMessage:
			wm = Message{Role: RoleTool, Content: msg.Text(), ToolName: msg.ToolName()}
		default:
			return nil, types.NewContractError("message %d: unsupported message type %T", i, m)
		}
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		out = append(out, wm)
	}
	return out, nil
}

func userMessage(ctx context.Context, loader *providers.ImageLoader, msg *types.UserMessage) (Message, error) {
	wm := Message{Role: RoleUser, Content: msg.JoinedText()}
	if !msg.HasImage() {
		return wm, nil
	}
	if loader == nil {
		loader = providers.NewImageLoader(nil)
	}
	for _, img := range msg.Images() {
		loaded, err := loader.Load(ctx, img.Image())
		if err != nil {
			return Message{}, err
		}
		wm.Images = append(wm.Images, loaded.Base64Data)
	}
	return wm, nil
}

func assistantMessage(msg *types.AiMessage) (Message, error) {
	wm := Message{Role: RoleAssistant, Content: msg.Text()}
	for _, req := range msg.ToolExecutionRequests() {
		args := map[string]any{}
		if strings.TrimSpace(req.Arguments) != "" {
			if err := json.Unmarshal([]byte(req.Arguments), &args); err != nil {
				return Message{}, types.NewContractError("tool call %q: arguments are not a JSON object: %v", req.Name, err)
			}
		}
		wm.ToolCalls = append(wm.ToolCalls, ToolCall{Function: FunctionCall{Name: req.Name, Arguments: args}})
	}
	return wm, nil
}

// ToWireTools converts tool specifications to function tools.
func ToWireTools(specs []types.ToolSpecification) ([]Tool, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]Tool, 0, len(specs))
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		out = append(out, Tool{
			Type: "function",
			Function: FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.ParametersOrEmpty(),
			},
		})
	}
	return out, nil
}

// FromWire converts a chat reply. Tool calls get ids "call_<index>" since
// Ollama assigns none.
func FromWire(resp *ChatResponse) (types.Response[*types.AiMessage], error) {
	var zero types.Response[*types.AiMessage]
	if resp == nil {
		return zero, types.NewEmptyResponseError(ProviderName)
	}
	calls := resp.Message.ToolCalls
	if !resp.Done && resp.Message.Content == "" && len(calls) == 0 {
		return zero, types.NewEmptyResponseError(ProviderName)
	}

	reason, err := FinishReasonFrom(resp.DoneReason, resp.Done, len(calls) > 0)
	if err != nil {
		return zero, err
	}

	var msg *types.AiMessage
	if len(calls) == 0 {
		msg = types.NewAiMessage(resp.Message.Content)
	} else {
		reqs := make([]types.ToolExecutionRequest, 0, len(calls))
		for i, tc := range calls {
			args := tc.Function.Arguments
			if args == nil {
				args = map[string]any{}
			}
			raw, err := json.Marshal(args)
			if err != nil {
				return zero, types.NewError(types.ErrDecode, "failed to encode tool call arguments").
					WithProvider(ProviderName).WithCause(err)
			}
			reqs = append(reqs, types.ToolExecutionRequest{
				ID:        fmt.Sprintf("call_%d", i),
				Name:      tc.Function.Name,
				Arguments: string(raw),
			})
		}
		if msg, err = types.NewAiMessageWithToolRequests(reqs...); err != nil {
			return zero, err
		}
	}

	return types.Response[*types.AiMessage]{
		Content:      msg,
		TokenUsage:   TokenUsageFrom(resp),
		FinishReason: reason,
	}, nil
}

// FinishReasonFrom maps done_reason. Ollama reports "stop" for tool-calling
// turns too, so the presence of tool calls decides between STOP and
// TOOL_EXECUTION.
func FinishReasonFrom(doneReason string, done, hasToolCalls bool) (types.FinishReason, error) {
	stop := types.FinishReasonStop
	if hasToolCalls {
		stop = types.FinishReasonToolExecution
	}
	switch doneReason {
	case "":
		if done {
			return stop, nil
		}
		return "", nil
	case "stop":
		return stop, nil
	case "length":
		return types.FinishReasonLength, nil
	case "load", "unload":
		return types.FinishReasonStop, nil
	}
	return "", types.NewContractError("unmapped ollama done reason %q", doneReason)
}

// TokenUsageFrom maps the eval counts; absent counts stay unknown.
func TokenUsageFrom(resp *ChatResponse) types.TokenUsage {
	switch {
	case resp.PromptEvalCount != nil && resp.EvalCount != nil:
		return types.NewTokenUsage(*resp.PromptEvalCount, *resp.EvalCount)
	case resp.PromptEvalCount != nil:
		n := *resp.PromptEvalCount
		return types.TokenUsage{InputTokens: &n}
	case resp.EvalCount != nil:
		n := *resp.EvalCount
		return types.TokenUsage{OutputTokens: &n}
	}
	return types.TokenUsage{}
}

// EmbeddingFrom converts one embedding reply.
func EmbeddingFrom(resp *EmbeddingResponse) (types.Embedding, error) {
	if resp == nil || len(resp.Embedding) == 0 {
		return types.Embedding{}, types.NewEmptyResponseError(ProviderName)
	}
	return types.EmbeddingFromFloat64(resp.Embedding), nil
}
