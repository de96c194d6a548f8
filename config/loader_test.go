// 配置加载器测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "llmbridge.yaml")

	yamlContent := `
openai:
  api_key: "sk-yaml"
  chat_model: "gpt-4o-mini"
  temperature: 0.2
  http:
    read_timeout: 90s
    log_requests: true

ollama:
  base_url: "http://gpu-box:11434"
  chat_model: "mistral"

chroma:
  collection: "papers"
  distance: "l2"
  auth:
    username: "admin"
    password: "secret"

weaviate:
  class_name: "Papers"
  avoid_dups: true

log:
  level: "debug"
  format: "json"
  output_paths: ["stdout", "/tmp/llmbridge.log"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-yaml", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, 0.2, cfg.OpenAI.Temperature)
	assert.Equal(t, 90*time.Second, cfg.OpenAI.HTTP.ReadTimeout)
	assert.True(t, cfg.OpenAI.HTTP.LogRequests)
	// 未出现在 YAML 中的字段保留默认值
	assert.Equal(t, 10*time.Second, cfg.OpenAI.HTTP.ConnectTimeout)
	assert.Equal(t, "text-embedding-ada-002", cfg.OpenAI.EmbeddingModel)

	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "mistral", cfg.Ollama.ChatModel)

	assert.Equal(t, "papers", cfg.Chroma.Collection)
	assert.Equal(t, "l2", cfg.Chroma.Distance)
	assert.Equal(t, "admin", cfg.Chroma.Auth.Username)

	assert.Equal(t, "Papers", cfg.Weaviate.ClassName)
	assert.True(t, cfg.Weaviate.AvoidDups)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"stdout", "/tmp/llmbridge.log"}, cfg.Log.OutputPaths)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("LLMBRIDGE_OPENAI_API_KEY", "sk-env")
	t.Setenv("LLMBRIDGE_OPENAI_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("LLMBRIDGE_OPENAI_HTTP_CONNECT_TIMEOUT", "3s")
	t.Setenv("LLMBRIDGE_OLLAMA_TEMPERATURE", "0.1")
	t.Setenv("LLMBRIDGE_WEAVIATE_AUTH_API_KEY", "wv-key")
	t.Setenv("LLMBRIDGE_WEAVIATE_AVOID_DUPS", "true")
	t.Setenv("LLMBRIDGE_LOG_OUTPUT_PATHS", "stdout, stderr")
	t.Setenv("LLMBRIDGE_METRICS_ENABLED", "1")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, 2.5, cfg.OpenAI.RequestsPerSecond)
	assert.Equal(t, 3*time.Second, cfg.OpenAI.HTTP.ConnectTimeout)
	assert.Equal(t, 0.1, cfg.Ollama.Temperature)
	assert.Equal(t, "wv-key", cfg.Weaviate.Auth.APIKey)
	assert.True(t, cfg.Weaviate.AvoidDups)
	assert.Equal(t, []string{"stdout", "stderr"}, cfg.Log.OutputPaths)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "llmbridge.yaml")
	yamlContent := `
openai:
  chat_model: "yaml-model"
  embedding_model: "yaml-embedding"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))
	t.Setenv("LLMBRIDGE_OPENAI_CHAT_MODEL", "env-model")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "env-model", cfg.OpenAI.ChatModel)
	assert.Equal(t, "yaml-embedding", cfg.OpenAI.EmbeddingModel)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_CHROMA_COLLECTION", "custom")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Chroma.Collection)
}

func TestLoader_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_Errors(t *testing.T) {
	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("openai: [unclosed"), 0o644))

		_, err := NewLoader().WithConfigPath(configPath).Load()
		assert.ErrorContains(t, err, "failed to load config from file")
	})

	t.Run("invalid duration", func(t *testing.T) {
		t.Setenv("LLMBRIDGE_CHROMA_HTTP_READ_TIMEOUT", "soon")

		_, err := NewLoader().Load()
		assert.ErrorContains(t, err, "LLMBRIDGE_CHROMA_HTTP_READ_TIMEOUT")
	})

	t.Run("invalid bool", func(t *testing.T) {
		t.Setenv("LLMBRIDGE_TELEMETRY_ENABLED", "maybe")

		_, err := NewLoader().Load()
		assert.ErrorContains(t, err, "LLMBRIDGE_TELEMETRY_ENABLED")
	})
}

func TestLoader_WithValidator(t *testing.T) {
	t.Setenv("LLMBRIDGE_CHROMA_AUTH_API_KEY", "key")
	t.Setenv("LLMBRIDGE_CHROMA_AUTH_USERNAME", "admin")

	_, err := NewLoader().WithValidator((*Config).Validate).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
	assert.Contains(t, err.Error(), "mutually exclusive")
}

// --- Validate 测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "zero read timeout",
			mutate:  func(c *Config) { c.Ollama.HTTP.ReadTimeout = 0 },
			wantErr: "ollama: read_timeout must be positive",
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.OpenAI.Temperature = 2.5 },
			wantErr: "openai: temperature",
		},
		{
			name:    "negative rate",
			mutate:  func(c *Config) { c.OpenAI.RequestsPerSecond = -1 },
			wantErr: "requests_per_second",
		},
		{
			name: "weaviate auth conflict",
			mutate: func(c *Config) {
				c.Weaviate.Auth = StoreAuth{APIKey: "k", Password: "p"}
			},
			wantErr: "weaviate: api_key and username/password are mutually exclusive",
		},
		{
			name:    "unknown chroma distance",
			mutate:  func(c *Config) { c.Chroma.Distance = "hamming" },
			wantErr: `unknown distance "hamming"`,
		},
		{
			name:    "sample rate",
			mutate:  func(c *Config) { c.Telemetry.SampleRate = 1.5 },
			wantErr: "sample_rate",
		},
		{
			name:    "negative export interval",
			mutate:  func(c *Config) { c.Telemetry.ExportInterval = -time.Second },
			wantErr: "telemetry: export_interval must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpenAI.HTTP.ConnectTimeout = 0
	cfg.Chroma.HTTP.ReadTimeout = -time.Second

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai: connect_timeout")
	assert.Contains(t, err.Error(), "chroma: read_timeout")
}
