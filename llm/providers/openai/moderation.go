package openai

import (
	"context"

	"github.com/BaSui01/llmbridge/types"
)

// ModerationModel is the moderation facade.
type ModerationModel struct {
	client *Client
	opts   ModerationOptions
}

// NewModerationModel creates a moderation facade. client and opts are required.
func NewModerationModel(client *Client, opts *ModerationOptions) (*ModerationModel, error) {
	if client == nil {
		return nil, types.NewContractError("openai moderation model: client is required")
	}
	if opts == nil {
		return nil, types.NewContractError("openai moderation model: options are required")
	}
	return &ModerationModel{client: client, opts: *opts}, nil
}

// ModerateText moderates one text.
func (m *ModerationModel) ModerateText(ctx context.Context, text string) (types.Response[types.Moderation], error) {
	return m.moderate(ctx, []string{text})
}

// ModerateMessages moderates the text of each message. The first flagged
// message decides the verdict.
func (m *ModerationModel) ModerateMessages(ctx context.Context, messages []types.ChatMessage) (types.Response[types.Moderation], error) {
	inputs := make([]string, 0, len(messages))
	for _, msg := range messages {
		text, err := types.MessageText(msg)
		if err != nil {
			return types.Response[types.Moderation]{}, err
		}
		inputs = append(inputs, text)
	}
	return m.moderate(ctx, inputs)
}

func (m *ModerationModel) moderate(ctx context.Context, inputs []string) (types.Response[types.Moderation], error) {
	resp, err := m.client.Moderation(ctx, &ModerationRequest{Input: inputs, Model: m.opts.ModelName})
	if err != nil {
		return types.Response[types.Moderation]{}, err
	}
	verdict, err := ModerationFrom(inputs, resp)
	if err != nil {
		return types.Response[types.Moderation]{}, err
	}
	return types.NewResponse(verdict), nil
}
