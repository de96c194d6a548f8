package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/llmbridge/llm/providers/ollama"
	"github.com/BaSui01/llmbridge/llm/providers/openai"
	"github.com/BaSui01/llmbridge/types"
)

// textVector maps a text to a small deterministic vector, so equal texts
// embed identically.
func textVector(s string) []float32 {
	return []float32{
		float32(strings.Count(s, "a")),
		float32(strings.Count(s, "b")),
		float32(len(s)),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newFakeOpenAI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		last := req.Messages[len(req.Messages)-1].Content.Text
		if last == "fail" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": map[string]string{"message": "bad key", "type": "invalid_request_error"},
			})
			return
		}
		writeJSON(w, http.StatusOK, openai.ChatCompletionResponse{
			Model: req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.Message{Role: openai.RoleAssistant, Content: openai.TextContent("echo: " + last)},
				FinishReason: "stop",
			}},
			Usage: &openai.Usage{PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10},
		})
	})
	mux.HandleFunc("POST /embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req openai.EmbeddingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := openai.EmbeddingResponse{Model: req.Model, Usage: &openai.Usage{PromptTokens: len(req.Input), TotalTokens: len(req.Input)}}
		for i, in := range req.Input {
			raw, _ := json.Marshal(textVector(in))
			resp.Data = append(resp.Data, openai.EmbeddingData{Index: i, Embedding: raw})
		}
		writeJSON(w, http.StatusOK, resp)
	})
	mux.HandleFunc("POST /images/generations", func(w http.ResponseWriter, r *http.Request) {
		var req openai.ImageGenerationRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		var resp openai.ImageGenerationResponse
		for i := 0; i < req.N; i++ {
			d := openai.ImageData{RevisedPrompt: req.Prompt}
			if req.ResponseFormat == openai.ImageResponseFormatBase64 {
				d.B64JSON = base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("png-%d", i)))
			} else {
				d.URL = fmt.Sprintf("https://images.example/%d.png", i)
			}
			resp.Data = append(resp.Data, d)
		}
		writeJSON(w, http.StatusOK, resp)
	})
	mux.HandleFunc("POST /moderations", func(w http.ResponseWriter, r *http.Request) {
		var req openai.ModerationRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		var resp openai.ModerationResponse
		for _, in := range req.Input {
			resp.Results = append(resp.Results, openai.ModerationResult{Flagged: strings.Contains(in, "bad")})
		}
		writeJSON(w, http.StatusOK, resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newFakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req ollama.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusOK, ollama.ChatResponse{
			Model:      req.Model,
			Message:    ollama.Message{Role: "assistant", Content: "local: " + req.Messages[len(req.Messages)-1].Content},
			Done:       true,
			DoneReason: "stop",
		})
	})
	mux.HandleFunc("POST /api/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req ollama.EmbeddingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		v := textVector(req.Prompt)
		writeJSON(w, http.StatusOK, ollama.EmbeddingResponse{Embedding: []float64{float64(v[0]), float64(v[1]), float64(v[2])}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, openaiURL, ollamaURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "llmbridge.yaml")
	body := fmt.Sprintf(`openai:
  base_url: %q
  api_key: sk-test
ollama:
  base_url: %q
log:
  level: error
`, openaiURL, ollamaURL)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

type run struct {
	app    *App
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, cfgPath string, args ...string) run {
	t.Helper()
	return executeWithStdin(t, "", cfgPath, args...)
}

func executeWithStdin(t *testing.T, stdin, cfgPath string, args ...string) run {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp(WithIO(&stdout, &stderr), WithStdin(strings.NewReader(stdin)), WithLogger(zap.NewNop()))
	err := app.Execute(context.Background(), append([]string{"--config", cfgPath}, args...))
	return run{app: app, stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var ec ExitCoder
	require.True(t, errors.As(err, &ec), "error %v carries no exit code", err)
	return ec.ExitCode()
}

func TestChat_OpenAI(t *testing.T) {
	cfg := writeConfig(t, newFakeOpenAI(t).URL, "")

	r := execute(t, cfg, "chat", "--prompt", "hi", "--system", "be brief")
	require.NoError(t, r.err)
	assert.Equal(t, "echo: hi\n", r.stdout)

	expected := `
# HELP llmbridge_llm_tokens_used_total Total number of tokens reported by providers
# TYPE llmbridge_llm_tokens_used_total counter
llmbridge_llm_tokens_used_total{model="gpt-3.5-turbo",provider="openai",type="input"} 7
llmbridge_llm_tokens_used_total{model="gpt-3.5-turbo",provider="openai",type="output"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(r.app.registry, strings.NewReader(expected), "llmbridge_llm_tokens_used_total"))

	n, err := testutil.GatherAndCount(r.app.registry, "llmbridge_provider_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChat_JSONWithModelOverride(t *testing.T) {
	cfg := writeConfig(t, newFakeOpenAI(t).URL, "")

	r := execute(t, cfg, "--json", "--model", "gpt-4o", "chat", "--prompt", "hi")
	require.NoError(t, r.err)

	var out chatOutput
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, "gpt-4o", out.Model)
	assert.Equal(t, "echo: hi", out.Text)
	assert.Equal(t, string(types.FinishReasonStop), out.FinishReason)
	assert.Equal(t, map[string]int{"input_tokens": 7, "output_tokens": 3, "total_tokens": 10}, out.Usage)
}

func TestChat_OllamaWithEstimate(t *testing.T) {
	cfg := writeConfig(t, "http://unused.invalid", newFakeOllama(t).URL)

	r := execute(t, cfg, "--provider", "ollama", "--json", "chat", "--prompt", "hello", "--estimate")
	require.NoError(t, r.err)

	var out chatOutput
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, "llama3", out.Model)
	assert.Equal(t, "local: hello", out.Text)
	require.NotNil(t, out.EstimatedTokens)
	assert.Positive(t, *out.EstimatedTokens)
	assert.Empty(t, out.Usage)
}

func TestChat_PromptFromStdin(t *testing.T) {
	cfg := writeConfig(t, newFakeOpenAI(t).URL, "")

	r := executeWithStdin(t, "  piped prompt\n", cfg, "chat")
	require.NoError(t, r.err)
	assert.Equal(t, "echo: piped prompt\n", r.stdout)
}

func TestChat_MissingPrompt(t *testing.T) {
	cfg := writeConfig(t, newFakeOpenAI(t).URL, "")

	r := execute(t, cfg, "chat")
	require.Error(t, r.err)
	assert.Equal(t, ExitValidation, exitCode(t, r.err))
}

func TestChat_ProviderErrorExitCode(t *testing.T) {
	cfg := writeConfig(t, newFakeOpenAI(t).URL, "")

	r := execute(t, cfg, "chat", "--prompt", "fail")
	require.Error(t, r.err)
	assert.Equal(t, ExitProvider, exitCode(t, r.err))
	assert.Contains(t, r.stderr, "bad key")
}

func TestChat_NetworkErrorExitCode(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	cfg := writeConfig(t, url, "")

	r := execute(t, cfg, "chat", "--prompt", "hi")
	require.Error(t, r.err)
	assert.Equal(t, ExitNetwork, exitCode(t, r.err))
}

func TestUnknownProviderIsValidationError(t *testing.T) {
	cfg := writeConfig(t, "http://unused.invalid", "")

	r := execute(t, cfg, "--provider", "acme", "chat", "--prompt", "hi")
	require.Error(t, r.err)
	assert.Equal(t, ExitValidation, exitCode(t, r.err))
}

func TestInvalidConfigIsValidationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("openai:\n  temperature: 5\n"), 0o600))

	r := execute(t, path, "version")
	require.Error(t, r.err)
	assert.Equal(t, ExitValidation, exitCode(t, r.err))
	assert.Contains(t, r.err.Error(), "temperature")
}

func TestEmbed(t *testing.T) {
	cfg := writeConfig(t, newFakeOpenAI(t).URL, "")

	r := execute(t, cfg, "--json", "embed", "ab", "--text", "aaa")
	require.NoError(t, r.err)

	var out embedOutput
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, 3, out.Dimension)
	// --text values come before positional arguments
	assert.Equal(t, [][]float32{{3, 0, 3}, {1, 1, 2}}, out.Embeddings)
}

func TestEmbed_RequiresInput(t *testing.T) {
	cfg := writeConfig(t, newFakeOpenAI(t).URL, "")

	r := execute(t, cfg, "embed")
	require.Error(t, r.err)
	assert.Equal(t, ExitValidation, exitCode(t, r.err))
}

func TestImage_URLs(t *testing.T) {
	cfg := writeConfig(t, newFakeOpenAI(t).URL, "")

	r := execute(t, cfg, "image", "--prompt", "a cat", "--n", "2")
	require.NoError(t, r.err)
	assert.Equal(t, "https://images.example/0.png\nhttps://images.example/1.png\n", r.stdout)
}

func TestImage_WritesFiles(t *testing.T) {
	cfg := writeConfig(t, newFakeOpenAI(t).URL, "")
	dir := filepath.Join(t.TempDir(), "out")

	r := execute(t, cfg, "--json", "image", "--prompt", "a cat", "--out", dir)
	require.NoError(t, r.err)

	var out imageOutput
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	require.Len(t, out.Images, 1)
	assert.Equal(t, "a cat", out.Images[0].RevisedPrompt)

	data, err := os.ReadFile(out.Images[0].File)
	require.NoError(t, err)
	assert.Equal(t, "png-0", string(data))
}

func TestImage_NotSupportedByOllama(t *testing.T) {
	cfg := writeConfig(t, "http://unused.invalid", newFakeOllama(t).URL)

	r := execute(t, cfg, "--provider", "ollama", "image", "--prompt", "x")
	require.Error(t, r.err)
	assert.Equal(t, ExitValidation, exitCode(t, r.err))
}

func TestModerate(t *testing.T) {
	cfg := writeConfig(t, newFakeOpenAI(t).URL, "")

	r := execute(t, cfg, "moderate", "fine", "really bad", "also bad")
	require.NoError(t, r.err)
	assert.Equal(t, "flagged: really bad\n", r.stdout)

	r = execute(t, cfg, "--json", "moderate", "fine")
	require.NoError(t, r.err)
	var out moderateOutput
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.False(t, out.Flagged)
}

func TestStoreQuery_Memory(t *testing.T) {
	cfg := writeConfig(t, newFakeOpenAI(t).URL, "")

	r := execute(t, cfg, "--json", "store", "query",
		"--doc", "apple", "--doc", "banana", "--meta", "source=test",
		"--text", "apple", "--max-results", "1")
	require.NoError(t, r.err)

	var out struct {
		Store   string        `json:"store"`
		Matches []matchOutput `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, "memory", out.Store)
	require.Len(t, out.Matches, 1)
	assert.Equal(t, "apple", out.Matches[0].Text)
	assert.InDelta(t, 1.0, out.Matches[0].Score, 1e-6)
	assert.Equal(t, types.Metadata{"source": "test"}, out.Matches[0].Metadata)

	n, err := testutil.GatherAndCount(r.app.registry, "llmbridge_store_query_matches")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreQuery_Ollama(t *testing.T) {
	cfg := writeConfig(t, "http://unused.invalid", newFakeOllama(t).URL)

	r := execute(t, cfg, "--provider", "ollama", "store", "query",
		"--doc", "aaa", "--doc", "bb", "--text", "aaa", "--min-score", "0.99")
	require.NoError(t, r.err)
	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "\taaa"), lines[0])
}

func TestStoreQuery_InvalidBounds(t *testing.T) {
	cfg := writeConfig(t, newFakeOpenAI(t).URL, "")

	for _, args := range [][]string{
		{"store", "query", "--text", "x", "--max-results", "0"},
		{"store", "query", "--text", "x", "--min-score", "1.5"},
		{"store", "query", "--text", "x", "--store", "pinecone"},
		{"store", "query", "--text", "x", "--doc", "a", "--meta", "novalue"},
	} {
		r := execute(t, cfg, args...)
		require.Error(t, r.err, args)
		assert.Equal(t, ExitValidation, exitCode(t, r.err), args)
	}
}

func TestStoreAdd_Memory(t *testing.T) {
	cfg := writeConfig(t, newFakeOpenAI(t).URL, "")

	r := execute(t, cfg, "store", "add", "--doc", "one", "--doc", "two")
	require.NoError(t, r.err)
	assert.Len(t, strings.Split(strings.TrimSpace(r.stdout), "\n"), 2)

	r = execute(t, cfg, "store", "add")
	require.Error(t, r.err)
	assert.Equal(t, ExitValidation, exitCode(t, r.err))
}

func TestTokens(t *testing.T) {
	cfg := writeConfig(t, "http://unused.invalid", "")

	r := execute(t, cfg, "--json", "--model", "llama3", "tokens", "abcd", "efgh")
	require.NoError(t, r.err)

	var out tokensOutput
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, "llama3", out.Model)
	assert.Positive(t, out.Tokens)
	assert.Positive(t, out.MaxTokens)
}

func TestVersion(t *testing.T) {
	cfg := writeConfig(t, "http://unused.invalid", "")

	r := execute(t, cfg, "version")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "llmbridge dev")

	r = execute(t, cfg, "--json", "version")
	require.NoError(t, r.err)
	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, "dev", out["version"])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"contract", types.NewContractError("bad input"), ExitValidation},
		{"transport", types.NewError(types.ErrTransport, "dial failed"), ExitNetwork},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ExitNetwork},
		{"upstream", types.NewError(types.ErrRateLimited, "slow down").WithHTTPStatus(429), ExitProvider},
		{"already classified", exitWithCode(ExitNetwork, errors.New("x")), ExitNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(t, classify(tt.err)))
		})
	}
	assert.NoError(t, classify(nil))
}
