package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/llmbridge/internal/tlsutil"
	"github.com/BaSui01/llmbridge/types"
)

const instrumentationName = "github.com/BaSui01/llmbridge/llm/providers"

// Timeouts applied when ClientConfig leaves them zero.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 60 * time.Second
)

// RequestObserver receives one callback per HTTP exchange. statusCode is 0
// when the request never got a response.
type RequestObserver interface {
	ObserveRequest(provider, operation string, statusCode int, duration time.Duration, err error)
}

// BasicAuth holds HTTP basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

// ClientConfig configures a Client. Only ProviderName and BaseURL are required.
type ClientConfig struct {
	// ProviderName labels errors, logs, spans and metrics ("openai", "chroma", ...).
	ProviderName string

	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string

	// APIKey is sent as a bearer token. Mutually exclusive with BasicAuth.
	APIKey string

	BasicAuth *BasicAuth

	// Headers are added to every request.
	Headers map[string]string

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	LogRequests  bool
	LogResponses bool

	// RequestsPerSecond enables a client-side token bucket when positive.
	RequestsPerSecond float64

	Codec *Codec

	// HTTPClient overrides the transport. Timeouts are then the caller's concern.
	HTTPClient *http.Client

	Logger  *zap.Logger
	Metrics RequestObserver
}

// Client is the HTTP base shared by provider and store clients. It is safe
// for concurrent use.
type Client struct {
	provider     string
	baseURL      string
	apiKey       string
	basicAuth    *BasicAuth
	headers      map[string]string
	httpClient   *http.Client
	codec        *Codec
	logger       *zap.Logger
	logRequests  bool
	logResponses bool
	limiter      *rate.Limiter
	observer     RequestObserver
	tracer       trace.Tracer
	duration     metric.Float64Histogram
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, types.NewContractError("%s: base url is required", cfg.ProviderName)
	}
	if cfg.APIKey != "" && cfg.BasicAuth != nil {
		return nil, types.NewContractError("%s: api key and basic auth are mutually exclusive", cfg.ProviderName)
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = tlsutil.SecureHTTPClient(connectTimeout, readTimeout)
	}
	codec := cfg.Codec
	if codec == nil {
		codec = DefaultCodec()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	c := &Client{
		provider:     cfg.ProviderName,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		basicAuth:    cfg.BasicAuth,
		headers:      headers,
		httpClient:   httpClient,
		codec:        codec,
		logger:       logger.With(zap.String("component", "http_client"), zap.String("provider", cfg.ProviderName)),
		logRequests:  cfg.LogRequests,
		logResponses: cfg.LogResponses,
		observer:     cfg.Metrics,
		tracer:       otel.Tracer(instrumentationName),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	duration, err := otel.Meter(instrumentationName).Float64Histogram(
		"llmbridge.client.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of provider and store HTTP calls"),
	)
	if err != nil {
		// the returned instrument is still usable as a no-op
		c.logger.Warn("failed to create request duration histogram", zap.Error(err))
	}
	c.duration = duration
	return c, nil
}

// Provider returns the configured provider name.
func (c *Client) Provider() string { return c.provider }

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Codec returns the JSON codec.
func (c *Client) Codec() *Codec { return c.codec }

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

// Logger returns the client's logger.
func (c *Client) Logger() *zap.Logger { return c.logger }

// Post sends in as JSON and decodes the reply into out. op names the call
// for metrics and tracing.
func (c *Client) Post(ctx context.Context, op, path string, in, out any) error {
	return c.Do(ctx, op, http.MethodPost, path, in, out)
}

// Get decodes the reply into out.
func (c *Client) Get(ctx context.Context, op, path string, out any) error {
	return c.Do(ctx, op, http.MethodGet, path, nil, out)
}

// Delete issues a DELETE and discards the reply.
func (c *Client) Delete(ctx context.Context, op, path string) error {
	return c.Do(ctx, op, http.MethodDelete, path, nil, nil)
}

// Do performs one request. A nil in sends no body; a nil out discards the
// reply. Non-2xx replies become *ProviderError; transport failures are
// returned wrapped, so errors.Is(err, context.DeadlineExceeded) still holds.
func (c *Client) Do(ctx context.Context, op, method, path string, in, out any) error {
	endpoint := c.baseURL + path

	ctx, span := c.tracer.Start(ctx, c.provider+" "+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", c.provider),
			attribute.String("llm.operation", op),
			semconv.HTTPRequestMethodKey.String(method),
			semconv.URLFull(endpoint),
		),
	)
	defer span.End()

	start := time.Now()
	status, err := c.roundTrip(ctx, method, endpoint, in, out)
	elapsed := time.Since(start)

	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if c.duration != nil {
		c.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
			attribute.String("llm.provider", c.provider),
			attribute.String("llm.operation", op),
			attribute.Int("http.response.status_code", status),
		))
	}
	if c.observer != nil {
		c.observer.ObserveRequest(c.provider, op, status, elapsed, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, in, out any) (int, error) {
	var payload []byte
	if in != nil {
		data, err := c.codec.Marshal(in)
		if err != nil {
			return 0, types.NewError(types.ErrInvalidRequest, "failed to encode request").
				WithProvider(c.provider).WithCause(err)
		}
		payload = data
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("%s: rate limiter: %w", c.provider, err)
		}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to create request: %w", c.provider, err)
	}
	c.applyHeaders(req, payload != nil)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	if c.logRequests {
		c.logger.Debug("http request",
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.Any("headers", maskedHeaders(req.Header)),
			zap.ByteString("body", payload),
		)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, types.NewError(types.ErrTransport, fmt.Sprintf("%s %s failed", method, endpoint)).
			WithProvider(c.provider).WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, types.NewError(types.ErrTransport, "failed to read response body").
			WithProvider(c.provider).WithCause(err)
	}

	if c.logResponses {
		c.logger.Debug("http response",
			zap.Int("status", resp.StatusCode),
			zap.String("url", endpoint),
			zap.Any("headers", resp.Header),
			zap.ByteString("body", raw),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, NewProviderError(c.provider, resp.StatusCode, resp.Status, raw)
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, types.NewEmptyResponseError(c.provider)
	}
	if err := c.codec.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, types.NewError(types.ErrDecode, "failed to decode response").
			WithProvider(c.provider).WithCause(err)
	}
	return resp.StatusCode, nil
}

func (c *Client) applyHeaders(req *http.Request, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	switch {
	case c.apiKey != "":
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	case c.basicAuth != nil:
		req.SetBasicAuth(c.basicAuth.Username, c.basicAuth.Password)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

// maskedHeaders copies h with credentials shortened to a recognisable prefix.
func maskedHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		v := h.Get(k)
		switch strings.ToLower(k) {
		case "authorization", "api-key", "x-api-key":
			v = maskSecret(v)
		}
		out[k] = v
	}
	return out
}

func maskSecret(v string) string {
	scheme, secret, ok := strings.Cut(v, " ")
	if !ok {
		scheme, secret = "", v
	}
	masked := "..."
	if len(secret) > 8 {
		masked = secret[:5] + "..." + secret[len(secret)-2:]
	}
	if scheme == "" {
		return masked
	}
	return scheme + " " + masked
}
