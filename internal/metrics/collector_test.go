package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/llmbridge/llm/providers"
	"github.com/BaSui01/llmbridge/types"
)

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

var _ providers.RequestObserver = (*Collector)(nil)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollector("test", reg, nil), reg
}

func TestCollector_ObserveRequest(t *testing.T) {
	c, _ := newTestCollector(t)

	c.ObserveRequest("openai", "chat", 200, 120*time.Millisecond, nil)
	c.ObserveRequest("openai", "chat", 200, 80*time.Millisecond, nil)
	c.ObserveRequest("openai", "chat", 429, 10*time.Millisecond,
		types.NewError(types.ErrRateLimited, "slow down").WithHTTPStatus(429))
	c.ObserveRequest("chroma", "query", 0, time.Second,
		types.NewError(types.ErrTransport, "connection refused"))
	c.ObserveRequest("weaviate", "query", 0, time.Second, context.Canceled)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("openai", "chat", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("openai", "chat", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("chroma", "query", "no_response")))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.errorsTotal.WithLabelValues("openai", "chat", string(types.ErrRateLimited))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errorsTotal.WithLabelValues("chroma", "query", string(types.ErrTransport))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errorsTotal.WithLabelValues("weaviate", "query", "UNKNOWN")))

	assert.Equal(t, 3, testutil.CollectAndCount(c.requestDuration))
}

func TestCollector_ObserveRequestExposition(t *testing.T) {
	c, reg := newTestCollector(t)
	c.ObserveRequest("ollama", "embeddings", 503, time.Millisecond, errors.New("down"))

	expected := `
# HELP test_provider_requests_total Total number of upstream HTTP requests
# TYPE test_provider_requests_total counter
test_provider_requests_total{operation="embeddings",provider="ollama",status="5xx"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_provider_requests_total"))
}

func TestCollector_RecordTokenUsage(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordTokenUsage("openai", "gpt-3.5-turbo", types.NewTokenUsage(100, 20))
	c.RecordTokenUsage("openai", "gpt-3.5-turbo", types.NewTokenUsage(5, 1))
	c.RecordTokenUsage("openai", "text-embedding-ada-002", types.NewInputTokenUsage(7))
	c.RecordTokenUsage("ollama", "llama3", types.TokenUsage{})

	assert.Equal(t, 105.0, testutil.ToFloat64(c.tokensUsed.WithLabelValues("openai", "gpt-3.5-turbo", "input")))
	assert.Equal(t, 21.0, testutil.ToFloat64(c.tokensUsed.WithLabelValues("openai", "gpt-3.5-turbo", "output")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.tokensUsed.WithLabelValues("openai", "text-embedding-ada-002", "input")))
	// 未知用量不产生序列
	assert.Equal(t, 3, testutil.CollectAndCount(c.tokensUsed))
}

func TestCollector_RecordStoreQuery(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordStoreQuery("memory", 3)
	c.RecordStoreQuery("chroma", 0)

	assert.Equal(t, 2, testutil.CollectAndCount(c.storeMatches))
}

func TestCollector_SeparateRegistries(t *testing.T) {
	// 同一命名空间注册到两个 Registry 不会冲突
	assert.NotPanics(t, func() {
		NewCollector("llmbridge", prometheus.NewRegistry(), nil)
		NewCollector("llmbridge", prometheus.NewRegistry(), nil)
	})
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"}, {204, "2xx"}, {301, "3xx"}, {404, "4xx"}, {500, "5xx"}, {0, "no_response"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusClass(tt.code), "code %d", tt.code)
	}
}
