package openai

import (
	"context"
	"net/url"
	"strings"

	"github.com/BaSui01/llmbridge/llm/providers"
	"github.com/BaSui01/llmbridge/types"
)

// ToWireMessages converts domain messages to chat messages. http and https
// images are passed by URL; inline data and file images become data URIs.
func ToWireMessages(ctx context.Context, loader *providers.ImageLoader, messages []types.ChatMessage) ([]Message, error) {
	out := make([]Message, 0, len(messages))
	for i, m := range messages {
		wm, err := toWireMessage(ctx, loader, m)
		if err != nil {
			return nil, err
		}
		if wm == nil {
			return nil, types.NewContractError("message %d: unsupported message type %T", i, m)
		}
		out = append(out, *wm)
	}
	return out, nil
}

func toWireMessage(ctx context.Context, loader *providers.ImageLoader, m types.ChatMessage) (*Message, error) {
	switch msg := m.(type) {
	case *types.SystemMessage:
		return &Message{Role: RoleSystem, Content: TextContent(msg.Text())}, nil

	case *types.UserMessage:
		wm := &Message{Role: RoleUser, Name: msg.Name()}
		if msg.HasSingleText() {
			wm.Content = TextContent(msg.SingleText())
			return wm, nil
		}
		parts, err := toContentParts(ctx, loader, msg.Contents())
		if err != nil {
			return nil, err
		}
		wm.Content = PartsContent(parts...)
		return wm, nil

	case *types.AiMessage:
		wm := &Message{Role: RoleAssistant}
		if !msg.HasToolExecutionRequests() {
			wm.Content = TextContent(msg.Text())
			return wm, nil
		}
		for _, req := range msg.ToolExecutionRequests() {
			wm.ToolCalls = append(wm.ToolCalls, ToolCall{
				ID:       req.ID,
				Type:     "function",
				Function: FunctionCall{Name: req.Name, Arguments: req.Arguments},
			})
		}
		return wm, nil

	case *types.ToolExecutionResultMessage:
		return &Message{Role: RoleTool, ToolCallID: msg.ID(), Content: TextContent(msg.Text())}, nil
	}
	return nil, nil
}

func toContentParts(ctx context.Context, loader *providers.ImageLoader, contents []types.Content) ([]ContentPart, error) {
	parts := make([]ContentPart, 0, len(contents))
	for _, c := range contents {
		switch content := c.(type) {
		case *types.TextContent:
			parts = append(parts, ContentPart{Type: ContentPartText, Text: content.Text()})
		case *types.ImageContent:
			u, err := imageURL(ctx, loader, content.Image())
			if err != nil {
				return nil, err
			}
			parts = append(parts, ContentPart{
				Type:     ContentPartImageURL,
				ImageURL: &ImageURL{URL: u, Detail: string(content.Detail())},
			})
		default:
			return nil, types.NewContractError("unsupported content type %T", c)
		}
	}
	return parts, nil
}

func imageURL(ctx context.Context, loader *providers.ImageLoader, img types.Image) (string, error) {
	if img.URL != nil {
		switch strings.ToLower(img.URL.Scheme) {
		case "http", "https":
			return img.URL.String(), nil
		}
	}
	if loader == nil {
		loader = providers.NewImageLoader(nil)
	}
	loaded, err := loader.Load(ctx, img)
	if err != nil {
		return "", err
	}
	return loaded.DataURL(), nil
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

// ToolChoiceFor forces the model to call spec.
func ToolChoiceFor(spec types.ToolSpecification) *ToolChoice {
	return &ToolChoice{Function: &FunctionName{Name: spec.Name}}
}

// FromWire converts the first choice of a chat completion.
func FromWire(resp *ChatCompletionResponse) (types.Response[*types.AiMessage], error) {
	var zero types.Response[*types.AiMessage]
	if resp == nil || len(resp.Choices) == 0 {
		return zero, types.NewEmptyResponseError(ProviderName)
	}
	choice := resp.Choices[0]

	reason, err := FinishReasonFrom(choice.FinishReason)
	if err != nil {
		return zero, err
	}
	msg, err := aiMessageFrom(choice.Message)
	if err != nil {
		return zero, err
	}
	return types.Response[*types.AiMessage]{
		Content:      msg,
		TokenUsage:   TokenUsageFrom(resp.Usage),
		FinishReason: reason,
	}, nil
}

func aiMessageFrom(m Message) (*types.AiMessage, error) {
	if len(m.ToolCalls) == 0 {
		text := ""
		if m.Content != nil {
			text = m.Content.Text
		}
		return types.NewAiMessage(text), nil
	}
	reqs := make([]types.ToolExecutionRequest, 0, len(m.ToolCalls))
	for _, tc := range m.ToolCalls {
		reqs = append(reqs, types.ToolExecutionRequest{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return types.NewAiMessageWithToolRequests(reqs...)
}

// FinishReasonFrom maps a documented finish_reason. An empty value means
// unknown; any undocumented value is a contract error.
func FinishReasonFrom(reason string) (types.FinishReason, error) {
	switch reason {
	case "":
		return "", nil
	case "stop":
		return types.FinishReasonStop, nil
	case "length":
		return types.FinishReasonLength, nil
	case "tool_calls", "function_call":
		return types.FinishReasonToolExecution, nil
	case "content_filter":
		return types.FinishReasonContentFilter, nil
	}
	return "", types.NewContractError("unmapped openai finish reason %q", reason)
}

// TokenUsageFrom maps a usage block; nil stays unknown.
func TokenUsageFrom(u *Usage) types.TokenUsage {
	if u == nil {
		return types.TokenUsage{}
	}
	return types.NewTokenUsage(u.PromptTokens, u.CompletionTokens)
}

// EmbeddingUsageFrom maps an embeddings usage block, which has no output count.
func EmbeddingUsageFrom(u *Usage) types.TokenUsage {
	if u == nil {
		return types.TokenUsage{}
	}
	return types.NewInputTokenUsage(u.PromptTokens)
}

// EmbeddingsFrom orders vectors by index. The result has exactly one vector
// per input.
func EmbeddingsFrom(resp *EmbeddingResponse, inputs int) ([]types.Embedding, error) {
	if resp == nil || len(resp.Data) == 0 {
		return nil, types.NewEmptyResponseError(ProviderName)
	}
	if len(resp.Data) != inputs {
		return nil, types.NewError(types.ErrDecode, "embedding count does not match input count").WithProvider(ProviderName)
	}
	out := make([]types.Embedding, inputs)
	seen := make([]bool, inputs)
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= inputs || seen[d.Index] {
			return nil, types.NewError(types.ErrDecode, "embedding index out of range or duplicated").WithProvider(ProviderName)
		}
		vec, err := d.Vector()
		if err != nil {
			return nil, types.NewError(types.ErrDecode, "failed to decode embedding").WithProvider(ProviderName).WithCause(err)
		}
		out[d.Index] = types.NewEmbedding(vec)
		seen[d.Index] = true
	}
	return out, nil
}

// ImagesFrom converts generated images.
func ImagesFrom(resp *ImageGenerationResponse) ([]types.Image, error) {
	if resp == nil || len(resp.Data) == 0 {
		return nil, types.NewEmptyResponseError(ProviderName)
	}
	out := make([]types.Image, 0, len(resp.Data))
	for _, d := range resp.Data {
		img := types.Image{Base64Data: d.B64JSON, RevisedPrompt: d.RevisedPrompt}
		if d.URL != "" {
			u, err := url.Parse(d.URL)
			if err != nil {
				return nil, types.NewError(types.ErrDecode, "invalid image url").WithProvider(ProviderName).WithCause(err)
			}
			img.URL = u
		}
		if d.B64JSON != "" {
			img.MimeType = "image/png"
		}
		out = append(out, img)
	}
	return out, nil
}

// ModerationFrom returns the verdict for the first flagged input. results
// and inputs are parallel.
func ModerationFrom(inputs []string, resp *ModerationResponse) (types.Moderation, error) {
	if resp == nil || len(resp.Results) == 0 {
		return types.Moderation{}, types.NewEmptyResponseError(ProviderName)
	}
	for i, r := range resp.Results {
		if !r.Flagged {
			continue
		}
		if i >= len(inputs) {
			return types.Moderation{}, types.NewError(types.ErrDecode, "more moderation results than inputs").WithProvider(ProviderName)
		}
		return types.FlaggedFor(inputs[i]), nil
	}
	return types.NotFlagged(), nil
}
