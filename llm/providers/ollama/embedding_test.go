package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/llmbridge/types"
)

func TestEmbeddingModel_EmbedAllIsSequential(t *testing.T) {
	var (
		mu      sync.Mutex
		prompts []string
	)
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req EmbeddingRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, DefaultEmbeddingModel, req.Model)
		mu.Lock()
		prompts = append(prompts, req.Prompt)
		n := len(prompts)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"embedding":[` + strconv.Itoa(n) + `,0]}`))
	})

	model, err := NewEmbeddingModel(srv.client(t), NewEmbeddingOptions().Build())
	require.NoError(t, err)

	resp, err := model.EmbedAll(context.Background(), types.TextSegments("a", "b", "c"))
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, []string{"a", "b", "c"}, prompts)
	mu.Unlock()
	require.Len(t, resp.Content, 3)
	for i, emb := range resp.Content {
		assert.Equal(t, []float32{float32(i + 1), 0}, emb.Vector)
	}
	assert.True(t, resp.TokenUsage.IsZero())
}

func TestEmbeddingModel_FailureAbortsBatch(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		var req EmbeddingRequest
		require.NoError(t, json.Unmarshal(body, &req))
		if req.Prompt == "b" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"model runner crashed"}`))
			return
		}
		_, _ = w.Write([]byte(`{"embedding":[1]}`))
	})

	model, err := NewEmbeddingModel(srv.client(t), NewEmbeddingOptions().Build())
	require.NoError(t, err)

	_, err = model.EmbedAll(context.Background(), types.TextSegments("a", "b", "c"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment 1 of 3")
	assert.Contains(t, err.Error(), "model runner crashed")
	assert.True(t, types.IsRetryable(err))
	assert.Equal(t, int32(2), srv.calls.Load())
}

func TestEmbeddingModel_EmptyEmbedding(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		_, _ = w.Write([]byte(`{"embedding":[]}`))
	})
	model, err := NewEmbeddingModel(srv.client(t), NewEmbeddingOptions().ModelName("mxbai-embed-large").Build())
	require.NoError(t, err)

	_, err = model.Embed(context.Background(), "hello")
	assert.True(t, types.IsEmptyResponse(err))

	_, err = model.EmbedAll(context.Background(), nil)
	assert.True(t, types.IsContractViolation(err))
}

func TestClient_ListModels(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3:latest","model":"llama3:latest",
			"modified_at":"2024-05-01T10:00:00Z","size":4661224676,"digest":"365c0bd3c000",
			"details":{"format":"gguf","family":"llama","parameter_size":"8.0B","quantization_level":"Q4_0"}}]}`))
	})

	list, err := srv.client(t).ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Models, 1)
	assert.Equal(t, "llama3:latest", list.Models[0].Name)
	assert.Equal(t, int64(4661224676), list.Models[0].Size)
	assert.Equal(t, "llama", list.Models[0].Details.Family)
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.http.BaseURL())
}
