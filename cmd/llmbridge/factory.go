package main

import (
	"fmt"

	"github.com/BaSui01/llmbridge/config"
	"github.com/BaSui01/llmbridge/llm"
	"github.com/BaSui01/llmbridge/llm/providers/ollama"
	"github.com/BaSui01/llmbridge/llm/providers/openai"
	"github.com/BaSui01/llmbridge/rag"
)

const (
	providerOpenAI = "openai"
	providerOllama = "ollama"

	storeMemory   = "memory"
	storeChroma   = "chroma"
	storeWeaviate = "weaviate"
)

// =============================================================================
// 🏭 模型工厂
// =============================================================================

func (a *App) pick(configured string) string {
	if a.model != "" {
		return a.model
	}
	return configured
}

func (a *App) openAIClient() (*openai.Client, error) {
	c := a.cfg.OpenAI
	return openai.NewClient(openai.Config{
		BaseURL:           c.BaseURL,
		APIKey:            c.APIKey,
		Organization:      c.Organization,
		ConnectTimeout:    c.HTTP.ConnectTimeout,
		ReadTimeout:       c.HTTP.ReadTimeout,
		LogRequests:       c.HTTP.LogRequests,
		LogResponses:      c.HTTP.LogResponses,
		RequestsPerSecond: c.RequestsPerSecond,
		Logger:            a.logger,
		Metrics:           a.collector,
	})
}

func (a *App) ollamaClient() (*ollama.Client, error) {
	c := a.cfg.Ollama
	return ollama.NewClient(ollama.Config{
		BaseURL:        c.BaseURL,
		ConnectTimeout: c.HTTP.ConnectTimeout,
		ReadTimeout:    c.HTTP.ReadTimeout,
		LogRequests:    c.HTTP.LogRequests,
		LogResponses:   c.HTTP.LogResponses,
		Logger:         a.logger,
		Metrics:        a.collector,
	})
}

func unsupported(what, provider string) error {
	return exitWithCode(ExitValidation, fmt.Errorf("%s is not supported by provider %q", what, provider))
}

// chatModel returns the model and its resolved name.
func (a *App) chatModel() (llm.ChatModel, string, error) {
	switch a.provider {
	case providerOpenAI:
		client, err := a.openAIClient()
		if err != nil {
			return nil, "", err
		}
		name := a.pick(a.cfg.OpenAI.ChatModel)
		m, err := openai.NewChatModel(client, openai.NewChatOptions().
			ModelName(name).
			Temperature(a.cfg.OpenAI.Temperature).
			Build())
		return m, name, err
	case providerOllama:
		client, err := a.ollamaClient()
		if err != nil {
			return nil, "", err
		}
		name := a.pick(a.cfg.Ollama.ChatModel)
		m, err := ollama.NewChatModel(client, ollama.NewChatOptions().
			ModelName(name).
			Temperature(a.cfg.Ollama.Temperature).
			Build())
		return m, name, err
	}
	return nil, "", unsupported("chat", a.provider)
}

func (a *App) embeddingModel() (llm.EmbeddingModel, string, error) {
	switch a.provider {
	case providerOpenAI:
		client, err := a.openAIClient()
		if err != nil {
			return nil, "", err
		}
		name := a.pick(a.cfg.OpenAI.EmbeddingModel)
		m, err := openai.NewEmbeddingModel(client, openai.NewEmbeddingOptions().ModelName(name).Build())
		return m, name, err
	case providerOllama:
		client, err := a.ollamaClient()
		if err != nil {
			return nil, "", err
		}
		name := a.pick(a.cfg.Ollama.EmbeddingModel)
		m, err := ollama.NewEmbeddingModel(client, ollama.NewEmbeddingOptions().ModelName(name).Build())
		return m, name, err
	}
	return nil, "", unsupported("embedding", a.provider)
}

// imageModel builds an OpenAI image model. b64 asks for inline data
// instead of hosted URLs.
func (a *App) imageModel(size string, b64 bool) (llm.ImageModel, string, error) {
	if a.provider != providerOpenAI {
		return nil, "", unsupported("image generation", a.provider)
	}
	client, err := a.openAIClient()
	if err != nil {
		return nil, "", err
	}
	name := a.pick(a.cfg.OpenAI.ImageModel)
	b := openai.NewImageOptions().ModelName(name)
	if size != "" {
		b = b.Size(size)
	}
	if b64 {
		b = b.ResponseFormat(openai.ImageResponseFormatBase64)
	}
	m, err := openai.NewImageModel(client, b.Build())
	return m, name, err
}

func (a *App) moderationModel() (llm.ModerationModel, string, error) {
	if a.provider != providerOpenAI {
		return nil, "", unsupported("moderation", a.provider)
	}
	client, err := a.openAIClient()
	if err != nil {
		return nil, "", err
	}
	name := a.pick(a.cfg.OpenAI.ModerationModel)
	m, err := openai.NewModerationModel(client, openai.NewModerationOptions().ModelName(name).Build())
	return m, name, err
}

// =============================================================================
// 🗄️ 向量存储工厂
// =============================================================================

func (a *App) embeddingStore(kind string) (rag.EmbeddingStore, error) {
	switch kind {
	case storeMemory:
		return rag.NewInMemoryStore(a.logger), nil
	case storeChroma:
		return rag.NewChromaStore(chromaConfig(a.cfg.Chroma, a))
	case storeWeaviate:
		return rag.NewWeaviateStore(weaviateConfig(a.cfg.Weaviate, a))
	}
	return nil, exitWithCode(ExitValidation, fmt.Errorf("unknown store %q (memory, chroma, weaviate)", kind))
}

func chromaConfig(c config.ChromaConfig, a *App) rag.ChromaConfig {
	return rag.ChromaConfig{
		BaseURL:        c.BaseURL,
		CollectionName: c.Collection,
		Distance:       c.Distance,
		APIKey:         c.Auth.APIKey,
		Username:       c.Auth.Username,
		Password:       c.Auth.Password,
		ConnectTimeout: c.HTTP.ConnectTimeout,
		ReadTimeout:    c.HTTP.ReadTimeout,
		LogRequests:    c.HTTP.LogRequests,
		LogResponses:   c.HTTP.LogResponses,
		Logger:         a.logger,
		Metrics:        a.collector,
	}
}

func weaviateConfig(c config.WeaviateConfig, a *App) rag.WeaviateConfig {
	return rag.WeaviateConfig{
		BaseURL:        c.BaseURL,
		ClassName:      c.ClassName,
		AvoidDups:      c.AvoidDups,
		APIKey:         c.Auth.APIKey,
		Username:       c.Auth.Username,
		Password:       c.Auth.Password,
		ConnectTimeout: c.HTTP.ConnectTimeout,
		ReadTimeout:    c.HTTP.ReadTimeout,
		LogRequests:    c.HTTP.LogRequests,
		LogResponses:   c.HTTP.LogResponses,
		Logger:         a.logger,
		Metrics:        a.collector,
	}
}
