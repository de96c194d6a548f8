// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/llmbridge/types"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器。实现 providers.RequestObserver，挂到各 provider
// 与向量存储的 HTTP 客户端上。
type Collector struct {
	// 上游请求指标
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec

	// Token 指标
	tokensUsed *prometheus.CounterVec

	// 向量检索指标
	storeMatches *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器。reg 为 nil 时注册到 prometheus.DefaultRegisterer。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of upstream HTTP requests",
		},
		[]string{"provider", "operation", "status"},
	)

	c.requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Upstream HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "operation"},
	)

	c.errorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Total number of failed upstream requests by error code",
		},
		[]string{"provider", "operation", "code"},
	)

	c.tokensUsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens reported by providers",
		},
		[]string{"provider", "model", "type"}, // type: input, output
	)

	c.storeMatches = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_matches",
			Help:      "Number of matches returned per relevance query",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"store"},
	)

	logger.Debug("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 上游请求指标
// =============================================================================

// ObserveRequest 记录一次 HTTP 往返。statusCode 为 0 表示请求未得到响应。
func (c *Collector) ObserveRequest(provider, operation string, status int, duration time.Duration, err error) {
	c.requestsTotal.WithLabelValues(provider, operation, statusClass(status)).Inc()
	c.requestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
	if err == nil {
		return
	}
	code := string(types.GetErrorCode(err))
	if code == "" {
		code = "UNKNOWN"
	}
	c.errorsTotal.WithLabelValues(provider, operation, code).Inc()
}

// =============================================================================
// 🤖 Token 指标
// =============================================================================

// RecordTokenUsage 记录 Token 用量，未知的计数不记录
func (c *Collector) RecordTokenUsage(provider, model string, usage types.TokenUsage) {
	if usage.InputTokens != nil {
		c.tokensUsed.WithLabelValues(provider, model, "input").Add(float64(*usage.InputTokens))
	}
	if usage.OutputTokens != nil {
		c.tokensUsed.WithLabelValues(provider, model, "output").Add(float64(*usage.OutputTokens))
	}
}

// =============================================================================
// 🗄️ 向量检索指标
// =============================================================================

// RecordStoreQuery 记录一次检索返回的匹配数
func (c *Collector) RecordStoreQuery(store string, matches int) {
	c.storeMatches.WithLabelValues(store).Observe(float64(matches))
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusClass 将 HTTP 状态码归类
func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "no_response"
	}
}
