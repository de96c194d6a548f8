package openai

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/BaSui01/llmbridge/llm/providers"
	"github.com/BaSui01/llmbridge/types"
)

// ProviderName labels errors, logs and metrics produced by this package.
const ProviderName = "openai"

// DefaultBaseURL is the public OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config configures a Client.
type Config struct {
	BaseURL      string
	APIKey       string
	Organization string

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	LogRequests  bool
	LogResponses bool

	RequestsPerSecond float64

	Codec      *providers.Codec
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    providers.RequestObserver
}

// Client issues the raw OpenAI API calls. Every method takes a complete wire
// request and returns a complete wire response; preconditions are checked
// before anything is sent.
type Client struct {
	http   *providers.Client
	logger *zap.Logger
}

// NewClient creates a Client. BaseURL defaults to DefaultBaseURL.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	var headers map[string]string
	if cfg.Organization != "" {
		headers = map[string]string{"OpenAI-Organization": cfg.Organization}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hc, err := providers.NewClient(providers.ClientConfig{
		ProviderName:      ProviderName,
		BaseURL:           baseURL,
		APIKey:            cfg.APIKey,
		Headers:           headers,
		ConnectTimeout:    cfg.ConnectTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		LogRequests:       cfg.LogRequests,
		LogResponses:      cfg.LogResponses,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Codec:             cfg.Codec,
		HTTPClient:        cfg.HTTPClient,
		Logger:            logger,
		Metrics:           cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Client{http: hc, logger: logger.With(zap.String("provider", ProviderName))}, nil
}

// HTTPClient returns the transport, e.g. for an ImageLoader.
func (c *Client) HTTPClient() *http.Client { return c.http.HTTPClient() }

// ChatCompletion calls POST /chat/completions.
func (c *Client) ChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if req == nil {
		return nil, types.NewContractError("chat completion request is nil")
	}
	if req.Stream {
		return nil, types.NewContractError("streaming is not supported on the synchronous path")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, types.NewContractError("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, types.NewContractError("messages must not be empty")
	}
	var resp ChatCompletionResponse
	if err := c.http.Post(ctx, "chat", "/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Embeddings calls POST /embeddings.
func (c *Client) Embeddings(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	if req == nil {
		return nil, types.NewContractError("embedding request is nil")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, types.NewContractError("model is required")
	}
	if len(req.Input) == 0 {
		return nil, types.NewContractError("embedding input must not be empty")
	}
	if len(req.Input) > MaxEmbeddingInputs {
		return nil, types.NewContractError("embedding input has %d items, the limit is %d", len(req.Input), MaxEmbeddingInputs)
	}
	var resp EmbeddingResponse
	if err := c.http.Post(ctx, "embeddings", "/embeddings", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ImageGeneration calls POST /images/generations.
func (c *Client) ImageGeneration(ctx context.Context, req *ImageGenerationRequest) (*ImageGenerationResponse, error) {
	if req == nil {
		return nil, types.NewContractError("image generation request is nil")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, types.NewContractError("image prompt must not be empty")
	}
	if n := utf8.RuneCountInString(req.Prompt); n > MaxImagePromptLength {
		return nil, types.NewContractError("image prompt has %d characters, the limit is %d", n, MaxImagePromptLength)
	}
	if req.N < 0 {
		return nil, types.NewContractError("image count must be positive, got %d", req.N)
	}
	var resp ImageGenerationResponse
	if err := c.http.Post(ctx, "images", "/images/generations", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Moderation calls POST /moderations.
func (c *Client) Moderation(ctx context.Context, req *ModerationRequest) (*ModerationResponse, error) {
	if req == nil {
		return nil, types.NewContractError("moderation request is nil")
	}
	if len(req.Input) == 0 {
		return nil, types.NewContractError("moderation input must not be empty")
	}
	var resp ModerationResponse
	if err := c.http.Post(ctx, "moderations", "/moderations", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListModels calls GET /models.
func (c *Client) ListModels(ctx context.Context) (*ModelList, error) {
	var resp ModelList
	if err := c.http.Get(ctx, "models", "/models", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
