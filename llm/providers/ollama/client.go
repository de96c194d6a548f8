package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/llmbridge/llm/providers"
	"github.com/BaSui01/llmbridge/types"
)

// ProviderName labels errors, logs and metrics produced by this package.
const ProviderName = "ollama"

// DefaultBaseURL is the address of a local Ollama server.
const DefaultBaseURL = "http://localhost:11434"

// Config configures a Client. APIKey is only needed behind an
// authenticating proxy.
type Config struct {
	BaseURL string
	APIKey  string

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	LogRequests  bool
	LogResponses bool

	Codec      *providers.Codec
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    providers.RequestObserver
}

// Client issues the raw Ollama API calls.
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
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hc, err := providers.NewClient(providers.ClientConfig{
		ProviderName:   ProviderName,
		BaseURL:        baseURL,
		APIKey:         cfg.APIKey,
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		LogRequests:    cfg.LogRequests,
		LogResponses:   cfg.LogResponses,
		Codec:          cfg.Codec,
		HTTPClient:     cfg.HTTPClient,
		Logger:         logger,
		Metrics:        cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Client{http: hc, logger: logger.With(zap.String("provider", ProviderName))}, nil
}

// HTTPClient returns the transport, e.g. for an ImageLoader.
func (c *Client) HTTPClient() *http.Client { return c.http.HTTPClient() }

// Chat calls POST /api/chat.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req == nil {
		return nil, types.NewContractError("chat request is nil")
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
	var resp ChatResponse
	if err := c.http.Post(ctx, "chat", "/api/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Embeddings calls POST /api/embeddings for a single prompt.
func (c *Client) Embeddings(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	if req == nil {
		return nil, types.NewContractError("embedding request is nil")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, types.NewContractError("model is required")
	}
	var resp EmbeddingResponse
	if err := c.http.Post(ctx, "embeddings", "/api/embeddings", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListModels calls GET /api/tags.
func (c *Client) ListModels(ctx context.Context) (*ModelList, error) {
	var resp ModelList
	if err := c.http.Get(ctx, "models", "/api/tags", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
