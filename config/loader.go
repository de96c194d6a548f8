// =============================================================================
// 📦 llmbridge 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("llmbridge.yaml").
//	    WithEnvPrefix("LLMBRIDGE").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 llmbridge 的完整配置结构
type Config struct {
	// OpenAI 模型配置
	OpenAI OpenAIConfig `yaml:"openai" env:"OPENAI"`

	// Ollama 模型配置
	Ollama OllamaConfig `yaml:"ollama" env:"OLLAMA"`

	// Chroma 向量存储配置
	Chroma ChromaConfig `yaml:"chroma" env:"CHROMA"`

	// Weaviate 向量存储配置
	Weaviate WeaviateConfig `yaml:"weaviate" env:"WEAVIATE"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Metrics Prometheus 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// HTTPConfig 是各 HTTP 客户端共享的连接参数
type HTTPConfig struct {
	// 连接超时
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 记录请求（Debug 级别，密钥脱敏）
	LogRequests bool `yaml:"log_requests" env:"LOG_REQUESTS"`
	// 记录响应
	LogResponses bool `yaml:"log_responses" env:"LOG_RESPONSES"`
}

// OpenAIConfig OpenAI 配置
type OpenAIConfig struct {
	BaseURL      string `yaml:"base_url" env:"BASE_URL"`
	APIKey       string `yaml:"api_key" env:"API_KEY"`
	Organization string `yaml:"organization" env:"ORGANIZATION"`

	ChatModel       string  `yaml:"chat_model" env:"CHAT_MODEL"`
	EmbeddingModel  string  `yaml:"embedding_model" env:"EMBEDDING_MODEL"`
	ImageModel      string  `yaml:"image_model" env:"IMAGE_MODEL"`
	ModerationModel string  `yaml:"moderation_model" env:"MODERATION_MODEL"`
	Temperature     float64 `yaml:"temperature" env:"TEMPERATURE"`

	// 客户端限流（每秒请求数，0 表示不限）
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`

	HTTP HTTPConfig `yaml:"http" env:"HTTP"`
}

// OllamaConfig Ollama 配置
type OllamaConfig struct {
	BaseURL        string  `yaml:"base_url" env:"BASE_URL"`
	ChatModel      string  `yaml:"chat_model" env:"CHAT_MODEL"`
	EmbeddingModel string  `yaml:"embedding_model" env:"EMBEDDING_MODEL"`
	Temperature    float64 `yaml:"temperature" env:"TEMPERATURE"`

	HTTP HTTPConfig `yaml:"http" env:"HTTP"`
}

// StoreAuth 向量存储认证：APIKey 与 Username/Password 二选一
type StoreAuth struct {
	APIKey   string `yaml:"api_key" env:"API_KEY"`
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`
}

// ChromaConfig Chroma 配置
type ChromaConfig struct {
	BaseURL    string `yaml:"base_url" env:"BASE_URL"`
	Collection string `yaml:"collection" env:"COLLECTION"`
	// 新建集合的距离函数: cosine, l2, ip
	Distance string `yaml:"distance" env:"DISTANCE"`

	Auth StoreAuth  `yaml:"auth" env:"AUTH"`
	HTTP HTTPConfig `yaml:"http" env:"HTTP"`
}

// WeaviateConfig Weaviate 配置
type WeaviateConfig struct {
	BaseURL   string `yaml:"base_url" env:"BASE_URL"`
	ClassName string `yaml:"class_name" env:"CLASS_NAME"`
	// 以文本内容派生 ID，重复文本覆盖同一对象
	AvoidDups bool `yaml:"avoid_dups" env:"AVOID_DUPS"`

	Auth StoreAuth  `yaml:"auth" env:"AUTH"`
	HTTP HTTPConfig `yaml:"http" env:"HTTP"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
	// 是否使用明文 gRPC 连接采集器
	Insecure bool `yaml:"insecure" env:"INSECURE"`
	// 指标导出周期，0 表示使用 SDK 默认值
	ExportInterval time.Duration `yaml:"export_interval" env:"EXPORT_INTERVAL"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// /metrics 监听地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "LLMBRIDGE",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置，文件不存在时保留默认值
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段，键名为 前缀_段_字段
func setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue, ok := os.LookupEnv(envKey)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 验证
// =============================================================================

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	check := func(section string, h HTTPConfig) {
		if h.ConnectTimeout <= 0 {
			errs = append(errs, section+": connect_timeout must be positive")
		}
		if h.ReadTimeout <= 0 {
			errs = append(errs, section+": read_timeout must be positive")
		}
	}
	check("openai", c.OpenAI.HTTP)
	check("ollama", c.Ollama.HTTP)
	check("chroma", c.Chroma.HTTP)
	check("weaviate", c.Weaviate.HTTP)

	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errs = append(errs, "openai: temperature must be between 0 and 2")
	}
	if c.Ollama.Temperature < 0 || c.Ollama.Temperature > 2 {
		errs = append(errs, "ollama: temperature must be between 0 and 2")
	}
	if c.OpenAI.RequestsPerSecond < 0 {
		errs = append(errs, "openai: requests_per_second must not be negative")
	}
	if c.Chroma.Auth.conflicting() {
		errs = append(errs, "chroma: api_key and username/password are mutually exclusive")
	}
	if c.Weaviate.Auth.conflicting() {
		errs = append(errs, "weaviate: api_key and username/password are mutually exclusive")
	}
	switch c.Chroma.Distance {
	case "cosine", "l2", "ip":
	default:
		errs = append(errs, fmt.Sprintf("chroma: unknown distance %q", c.Chroma.Distance))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry: sample_rate must be between 0 and 1")
	}
	if c.Telemetry.ExportInterval < 0 {
		errs = append(errs, "telemetry: export_interval must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (a StoreAuth) conflicting() bool {
	return a.APIKey != "" && (a.Username != "" || a.Password != "")
}
