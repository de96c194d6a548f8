package openai

import (
	"maps"
	"slices"
)

// Default option values.
const (
	DefaultChatModel       = "gpt-3.5-turbo"
	DefaultEmbeddingModel  = "text-embedding-ada-002"
	DefaultImageModel      = "dall-e-2"
	DefaultModerationModel = "text-moderation-latest"

	DefaultTemperature = 0.7
	DefaultTopP        = 1.0

	DefaultImageSize    = "1024x1024"
	DefaultImageQuality = "standard"
	DefaultImageStyle   = "vivid"
)

// =============================================================================
// Chat
// =============================================================================

// ChatOptions configures a ChatModel. Zero MaxTokens, penalties and N leave
// the provider default in place. Build one with DefaultChatOptions or
// NewChatOptions.
type ChatOptions struct {
	ModelName         string
	Temperature       float64
	TopP              float64
	MaxTokens         int
	PresencePenalty   float64
	FrequencyPenalty  float64
	Stop              []string
	N                 int
	ResponseFormat    string
	Seed              *int
	User              string
	LogitBias         map[string]int
	ParallelToolCalls *bool
}

// DefaultChatOptions returns the documented defaults.
func DefaultChatOptions() ChatOptions {
	return ChatOptions{
		ModelName:   DefaultChatModel,
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		N:           1,
	}
}

func (o ChatOptions) clone() ChatOptions {
	o.Stop = slices.Clone(o.Stop)
	o.LogitBias = maps.Clone(o.LogitBias)
	if o.Seed != nil {
		seed := *o.Seed
		o.Seed = &seed
	}
	if o.ParallelToolCalls != nil {
		p := *o.ParallelToolCalls
		o.ParallelToolCalls = &p
	}
	return o
}

// ChatOptionsBuilder overrides defaults field by field.
type ChatOptionsBuilder struct {
	opts ChatOptions
}

// NewChatOptions starts a builder from DefaultChatOptions.
func NewChatOptions() *ChatOptionsBuilder {
	return &ChatOptionsBuilder{opts: DefaultChatOptions()}
}

func (b *ChatOptionsBuilder) ModelName(name string) *ChatOptionsBuilder {
	b.opts.ModelName = name
	return b
}

func (b *ChatOptionsBuilder) Temperature(t float64) *ChatOptionsBuilder {
	b.opts.Temperature = t
	return b
}

func (b *ChatOptionsBuilder) TopP(p float64) *ChatOptionsBuilder {
	b.opts.TopP = p
	return b
}

func (b *ChatOptionsBuilder) MaxTokens(n int) *ChatOptionsBuilder {
	b.opts.MaxTokens = n
	return b
}

func (b *ChatOptionsBuilder) PresencePenalty(p float64) *ChatOptionsBuilder {
	b.opts.PresencePenalty = p
	return b
}

func (b *ChatOptionsBuilder) FrequencyPenalty(p float64) *ChatOptionsBuilder {
	b.opts.FrequencyPenalty = p
	return b
}

func (b *ChatOptionsBuilder) Stop(stop ...string) *ChatOptionsBuilder {
	b.opts.Stop = stop
	return b
}

func (b *ChatOptionsBuilder) N(n int) *ChatOptionsBuilder {
	b.opts.N = n
	return b
}

// ResponseFormat sets "text" or "json_object".
func (b *ChatOptionsBuilder) ResponseFormat(format string) *ChatOptionsBuilder {
	b.opts.ResponseFormat = format
	return b
}

func (b *ChatOptionsBuilder) Seed(seed int) *ChatOptionsBuilder {
	b.opts.Seed = &seed
	return b
}

func (b *ChatOptionsBuilder) User(user string) *ChatOptionsBuilder {
	b.opts.User = user
	return b
}

func (b *ChatOptionsBuilder) LogitBias(bias map[string]int) *ChatOptionsBuilder {
	b.opts.LogitBias = bias
	return b
}

func (b *ChatOptionsBuilder) ParallelToolCalls(enabled bool) *ChatOptionsBuilder {
	b.opts.ParallelToolCalls = &enabled
	return b
}

// Build returns an independent copy of the options.
func (b *ChatOptionsBuilder) Build() *ChatOptions {
	o := b.opts.clone()
	return &o
}

// request builds the request skeleton; messages and tools are added by the caller.
func (o ChatOptions) request() *ChatCompletionRequest {
	req := &ChatCompletionRequest{
		Model:             o.ModelName,
		Temperature:       ptr(o.Temperature),
		TopP:              ptr(o.TopP),
		Stop:              slices.Clone(o.Stop),
		User:              o.User,
		Seed:              o.Seed,
		LogitBias:         maps.Clone(o.LogitBias),
		ParallelToolCalls: o.ParallelToolCalls,
	}
	if o.MaxTokens > 0 {
		req.MaxTokens = ptr(o.MaxTokens)
	}
	if o.N > 0 {
		req.N = ptr(o.N)
	}
	if o.PresencePenalty != 0 {
		req.PresencePenalty = ptr(o.PresencePenalty)
	}
	if o.FrequencyPenalty != 0 {
		req.FrequencyPenalty = ptr(o.FrequencyPenalty)
	}
	if o.ResponseFormat != "" {
		req.ResponseFormat = &ResponseFormat{Type: o.ResponseFormat}
	}
	return req
}

// =============================================================================
// Embedding
// =============================================================================

// EmbeddingOptions configures an EmbeddingModel. Zero Dimensions keeps the
// model's native size.
type EmbeddingOptions struct {
	ModelName      string
	Dimensions     int
	EncodingFormat string
	User           string
}

// DefaultEmbeddingOptions returns the documented defaults.
func DefaultEmbeddingOptions() EmbeddingOptions {
	return EmbeddingOptions{
		ModelName:      DefaultEmbeddingModel,
		EncodingFormat: EncodingFormatFloat,
	}
}

// EmbeddingOptionsBuilder overrides defaults field by field.
type EmbeddingOptionsBuilder struct {
	opts EmbeddingOptions
}

// NewEmbeddingOptions starts a builder from DefaultEmbeddingOptions.
func NewEmbeddingOptions() *EmbeddingOptionsBuilder {
	return &EmbeddingOptionsBuilder{opts: DefaultEmbeddingOptions()}
}

func (b *EmbeddingOptionsBuilder) ModelName(name string) *EmbeddingOptionsBuilder {
	b.opts.ModelName = name
	return b
}

func (b *EmbeddingOptionsBuilder) Dimensions(n int) *EmbeddingOptionsBuilder {
	b.opts.Dimensions = n
	return b
}

// EncodingFormat sets "float" or "base64".
func (b *EmbeddingOptionsBuilder) EncodingFormat(format string) *EmbeddingOptionsBuilder {
	b.opts.EncodingFormat = format
	return b
}

func (b *EmbeddingOptionsBuilder) User(user string) *EmbeddingOptionsBuilder {
	b.opts.User = user
	return b
}

func (b *EmbeddingOptionsBuilder) Build() *EmbeddingOptions {
	o := b.opts
	return &o
}

func (o EmbeddingOptions) request(inputs []string) *EmbeddingRequest {
	req := &EmbeddingRequest{
		Input:          inputs,
		Model:          o.ModelName,
		EncodingFormat: o.EncodingFormat,
		User:           o.User,
	}
	if o.Dimensions > 0 {
		req.Dimensions = ptr(o.Dimensions)
	}
	return req
}

// =============================================================================
// Image
// =============================================================================

// ImageOptions configures an ImageModel.
type ImageOptions struct {
	ModelName      string
	N              int
	Size           string
	Quality        string
	Style          string
	ResponseFormat string
	User           string
}

// DefaultImageOptions returns the documented defaults.
func DefaultImageOptions() ImageOptions {
	return ImageOptions{
		ModelName:      DefaultImageModel,
		N:              1,
		Size:           DefaultImageSize,
		Quality:        DefaultImageQuality,
		Style:          DefaultImageStyle,
		ResponseFormat: ImageResponseFormatURL,
	}
}

// ImageOptionsBuilder overrides defaults field by field.
type ImageOptionsBuilder struct {
	opts ImageOptions
}

// NewImageOptions starts a builder from DefaultImageOptions.
func NewImageOptions() *ImageOptionsBuilder {
	return &ImageOptionsBuilder{opts: DefaultImageOptions()}
}

func (b *ImageOptionsBuilder) ModelName(name string) *ImageOptionsBuilder {
	b.opts.ModelName = name
	return b
}

func (b *ImageOptionsBuilder) N(n int) *ImageOptionsBuilder {
	b.opts.N = n
	return b
}

func (b *ImageOptionsBuilder) Size(size string) *ImageOptionsBuilder {
	b.opts.Size = size
	return b
}

func (b *ImageOptionsBuilder) Quality(quality string) *ImageOptionsBuilder {
	b.opts.Quality = quality
	return b
}

func (b *ImageOptionsBuilder) Style(style string) *ImageOptionsBuilder {
	b.opts.Style = style
	return b
}

// ResponseFormat sets "url" or "b64_json".
func (b *ImageOptionsBuilder) ResponseFormat(format string) *ImageOptionsBuilder {
	b.opts.ResponseFormat = format
	return b
}

func (b *ImageOptionsBuilder) User(user string) *ImageOptionsBuilder {
	b.opts.User = user
	return b
}

func (b *ImageOptionsBuilder) Build() *ImageOptions {
	o := b.opts
	return &o
}

func (o ImageOptions) request(prompt string, n int) *ImageGenerationRequest {
	return &ImageGenerationRequest{
		Prompt:         prompt,
		Model:          o.ModelName,
		N:              n,
		Quality:        o.Quality,
		ResponseFormat: o.ResponseFormat,
		Size:           o.Size,
		Style:          o.Style,
		User:           o.User,
	}
}

// =============================================================================
// Moderation
// =============================================================================

// ModerationOptions configures a ModerationModel.
type ModerationOptions struct {
	ModelName string
}

// DefaultModerationOptions returns the documented defaults.
func DefaultModerationOptions() ModerationOptions {
	return ModerationOptions{ModelName: DefaultModerationModel}
}

// ModerationOptionsBuilder overrides defaults field by field.
type ModerationOptionsBuilder struct {
	opts ModerationOptions
}

// NewModerationOptions starts a builder from DefaultModerationOptions.
func NewModerationOptions() *ModerationOptionsBuilder {
	return &ModerationOptionsBuilder{opts: DefaultModerationOptions()}
}

func (b *ModerationOptionsBuilder) ModelName(name string) *ModerationOptionsBuilder {
	b.opts.ModelName = name
	return b
}

func (b *ModerationOptionsBuilder) Build() *ModerationOptions {
	o := b.opts
	return &o
}

func ptr[T any](v T) *T { return &v }
