// =============================================================================
// 📦 llmbridge 默认配置
// =============================================================================
// 模型默认值与各 provider 的 Default*Options 保持一致
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		OpenAI:    DefaultOpenAIConfig(),
		Ollama:    DefaultOllamaConfig(),
		Chroma:    DefaultChromaConfig(),
		Weaviate:  DefaultWeaviateConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// DefaultHTTPConfig 返回默认连接参数
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    60 * time.Second,
	}
}

// DefaultOpenAIConfig 返回默认 OpenAI 配置
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		BaseURL:         "https://api.openai.com/v1",
		ChatModel:       "gpt-3.5-turbo",
		EmbeddingModel:  "text-embedding-ada-002",
		ImageModel:      "dall-e-2",
		ModerationModel: "text-moderation-latest",
		Temperature:     0.7,
		HTTP:            DefaultHTTPConfig(),
	}
}

// DefaultOllamaConfig 返回默认 Ollama 配置
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		BaseURL:        "http://localhost:11434",
		ChatModel:      "llama3",
		EmbeddingModel: "nomic-embed-text",
		Temperature:    0.8,
		HTTP:           DefaultHTTPConfig(),
	}
}

// DefaultChromaConfig 返回默认 Chroma 配置
func DefaultChromaConfig() ChromaConfig {
	return ChromaConfig{
		BaseURL:    "http://localhost:8000",
		Collection: "default",
		Distance:   "cosine",
		HTTP:       DefaultHTTPConfig(),
	}
}

// DefaultWeaviateConfig 返回默认 Weaviate 配置
func DefaultWeaviateConfig() WeaviateConfig {
	return WeaviateConfig{
		BaseURL:   "http://localhost:8080",
		ClassName: "Default",
		HTTP:      DefaultHTTPConfig(),
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:        false,
		OTLPEndpoint:   "localhost:4317",
		ServiceName:    "llmbridge",
		SampleRate:     0.1,
		Insecure:       true,
		ExportInterval: 15 * time.Second,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Addr:      ":9091",
		Namespace: "llmbridge",
	}
}
