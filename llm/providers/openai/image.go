package openai

import (
	"context"

	"github.com/BaSui01/llmbridge/types"
)

// ImageModel is the image generation facade.
type ImageModel struct {
	client *Client
	opts   ImageOptions
}

// NewImageModel creates an image facade. client and opts are required.
func NewImageModel(client *Client, opts *ImageOptions) (*ImageModel, error) {
	if client == nil {
		return nil, types.NewContractError("openai image model: client is required")
	}
	if opts == nil {
		return nil, types.NewContractError("openai image model: options are required")
	}
	return &ImageModel{client: client, opts: *opts}, nil
}

// Options returns a copy of the options.
func (m *ImageModel) Options() ImageOptions { return m.opts }

// Generate creates the number of images the options ask for and returns the first.
func (m *ImageModel) Generate(ctx context.Context, prompt string) (types.Response[types.Image], error) {
	all, err := m.GenerateN(ctx, prompt, m.opts.N)
	if err != nil {
		return types.Response[types.Image]{}, err
	}
	return types.NewResponse(all.Content[0]), nil
}

// GenerateN creates n images. n <= 0 falls back to the options.
func (m *ImageModel) GenerateN(ctx context.Context, prompt string, n int) (types.Response[[]types.Image], error) {
	if n <= 0 {
		n = m.opts.N
	}
	resp, err := m.client.ImageGeneration(ctx, m.opts.request(prompt, n))
	if err != nil {
		return types.Response[[]types.Image]{}, err
	}
	images, err := ImagesFrom(resp)
	if err != nil {
		return types.Response[[]types.Image]{}, err
	}
	return types.NewResponse(images), nil
}
