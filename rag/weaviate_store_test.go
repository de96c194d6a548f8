package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/llmbridge/types"
)

var (
	nearVectorPattern = regexp.MustCompile(`vector: (\[[^\]]*\])`)
	certaintyPattern  = regexp.MustCompile(`certainty: ([0-9.eE+-]+)`)
	limitPattern      = regexp.MustCompile(`limit: (\d+)`)
)

// fakeWeaviate serves the schema, batch and GraphQL endpoints for one class.
type fakeWeaviate struct {
	*httptest.Server

	creates      atomic.Int32
	createStatus atomic.Int32

	mu      sync.Mutex
	exists  bool
	class   weaviateClass
	objects map[string]weaviateObject
	order   []string
	query   string
}

func newFakeWeaviate(t *testing.T) *fakeWeaviate {
	t.Helper()
	f := &fakeWeaviate{objects: make(map[string]weaviateObject)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/schema/{class}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, f.class)
	})
	mux.HandleFunc("POST /v1/schema", func(w http.ResponseWriter, r *http.Request) {
		f.creates.Add(1)
		if status := f.createStatus.Swap(0); status != 0 {
			f.mu.Lock()
			f.exists = status == http.StatusUnprocessableEntity
			f.mu.Unlock()
			http.Error(w, `{"error":[{"message":"class name Docs already exists"}]}`, int(status))
			return
		}
		var class weaviateClass
		require.NoError(t, json.NewDecoder(r.Body).Decode(&class))
		f.mu.Lock()
		f.exists, f.class = true, class
		f.mu.Unlock()
		writeJSON(w, class)
	})
	mux.HandleFunc("POST /v1/batch/objects", func(w http.ResponseWriter, r *http.Request) {
		var req weaviateBatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		defer f.mu.Unlock()
		results := make([]map[string]any, 0, len(req.Objects))
		for _, o := range req.Objects {
			if _, ok := f.objects[o.ID]; !ok {
				f.order = append(f.order, o.ID)
			}
			f.objects[o.ID] = o
			results = append(results, map[string]any{"id": o.ID, "result": map[string]any{}})
		}
		writeJSON(w, results)
	})
	mux.HandleFunc("POST /v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		var req weaviateGraphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		defer f.mu.Unlock()
		f.query = req.Query

		var vector []float32
		require.NoError(t, json.Unmarshal([]byte(nearVectorPattern.FindStringSubmatch(req.Query)[1]), &vector))
		minCertainty, err := strconv.ParseFloat(certaintyPattern.FindStringSubmatch(req.Query)[1], 64)
		require.NoError(t, err)
		limit, err := strconv.Atoi(limitPattern.FindStringSubmatch(req.Query)[1])
		require.NoError(t, err)

		type hit struct {
			props     map[string]any
			id        string
			vector    []float32
			certainty float64
		}
		var hits []hit
		for _, id := range f.order {
			o := f.objects[id]
			c := (1 + cosineSimilarity(vector, o.Vector)) / 2
			if c >= minCertainty {
				hits = append(hits, hit{props: o.Properties, id: id, vector: o.Vector, certainty: c})
			}
		}
		sort.SliceStable(hits, func(a, b int) bool { return hits[a].certainty > hits[b].certainty })
		if len(hits) > limit {
			hits = hits[:limit]
		}
		out := make([]map[string]any, 0, len(hits))
		for _, h := range hits {
			row := map[string]any{
				"text":     h.props["text"],
				"docId":    h.props["docId"],
				"metadata": h.props["metadata"],
				"_additional": map[string]any{
					"id": h.id, "certainty": h.certainty, "vector": h.vector,
				},
			}
			out = append(out, row)
		}
		writeJSON(w, map[string]any{"data": map[string]any{"Get": map[string]any{"Docs": out}}})
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeWeaviate) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query
}

func (f *fakeWeaviate) stored() map[string]weaviateObject {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]weaviateObject, len(f.objects))
	for k, v := range f.objects {
		out[k] = v
	}
	return out
}

func newTestWeaviateStore(t *testing.T, f *fakeWeaviate, avoidDups bool) *WeaviateStore {
	t.Helper()
	s, err := NewWeaviateStore(WeaviateConfig{BaseURL: f.URL, ClassName: "docs", AvoidDups: avoidDups})
	require.NoError(t, err)
	return s
}

func TestWeaviateStore_AddAllThenFindEach(t *testing.T) {
	ctx := context.Background()
	f := newFakeWeaviate(t)
	store := newTestWeaviateStore(t, f, false)

	embs := []types.Embedding{
		types.NewEmbedding([]float32{1, 0, 0}),
		types.NewEmbedding([]float32{0, 1, 0}),
		types.NewEmbedding([]float32{0, 0, 1}),
	}
	segs := []types.TextSegment{
		types.NewTextSegmentWithMetadata("alpha", types.Metadata{"source": "a.txt"}),
		types.NewTextSegment("beta"),
		types.NewTextSegment("gamma"),
	}
	ids, err := store.AddAllWithSegments(ctx, embs, segs)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	for i, emb := range embs {
		matches, err := store.FindRelevant(ctx, emb, 1, 0.9)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, ids[i], matches[0].EmbeddingID)
		assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
		require.NotNil(t, matches[0].Embedded)
		assert.Equal(t, segs[i].Text, matches[0].Embedded.Text)
	}
	assert.Equal(t, "a.txt", mustFindFirst(t, store, embs[0]).Embedded.Metadata.Get("source"))

	f.mu.Lock()
	class := f.class
	f.mu.Unlock()
	assert.Equal(t, "Docs", class.Class)
	assert.Equal(t, "none", class.Vectorizer)
	assert.Equal(t, "cosine", class.VectorIndexConfig["distance"])
	assert.EqualValues(t, 1, f.creates.Load())
}

func TestWeaviateStore_CertaintyIsScore(t *testing.T) {
	ctx := context.Background()
	f := newFakeWeaviate(t)
	store := newTestWeaviateStore(t, f, false)

	require.NoError(t, store.AddWithID(ctx, "same", types.NewEmbedding([]float32{1, 0})))
	require.NoError(t, store.AddWithID(ctx, "orthogonal", types.NewEmbedding([]float32{0, 1})))

	matches, err := store.FindRelevant(ctx, types.NewEmbedding([]float32{1, 0}), 3, 0.25)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "same", matches[0].EmbeddingID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.Equal(t, "orthogonal", matches[1].EmbeddingID)
	assert.InDelta(t, 0.5, matches[1].Score, 1e-6)
	assert.Nil(t, matches[1].Embedded)

	q := f.lastQuery()
	assert.Contains(t, q, "Docs(nearVector: {vector: [1,0], certainty: 0.25} limit: 3)")
	assert.Contains(t, q, "_additional { id certainty vector }")
}

func TestWeaviateStore_ObjectIDs(t *testing.T) {
	ctx := context.Background()
	f := newFakeWeaviate(t)
	store := newTestWeaviateStore(t, f, false)

	u := uuid.NewString()
	require.NoError(t, store.AddWithID(ctx, u, types.NewEmbedding([]float32{1})))
	require.NoError(t, store.AddWithID(ctx, "doc-1", types.NewEmbedding([]float32{1})))

	objects := f.stored()
	require.Contains(t, objects, u)
	assert.Equal(t, u, objects[u].Properties["docId"])

	hashed := objectID("doc-1")
	require.Contains(t, objects, hashed)
	assert.Equal(t, "doc-1", objects[hashed].Properties["docId"])
	assert.Equal(t, hashed, objectID("doc-1"))
}

func TestWeaviateStore_AvoidDups(t *testing.T) {
	ctx := context.Background()
	f := newFakeWeaviate(t)
	store := newTestWeaviateStore(t, f, true)

	seg := types.NewTextSegment("same text")
	first, err := store.AddWithSegment(ctx, types.NewEmbedding([]float32{1, 0}), seg)
	require.NoError(t, err)
	second, err := store.AddWithSegment(ctx, types.NewEmbedding([]float32{0, 1}), seg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, f.stored(), 1)

	other, err := store.AddWithSegment(ctx, types.NewEmbedding([]float32{0, 1}), types.NewTextSegment("other"))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestWeaviateStore_CreateAlreadyExists(t *testing.T) {
	f := newFakeWeaviate(t)
	f.createStatus.Store(http.StatusUnprocessableEntity)
	store := newTestWeaviateStore(t, f, false)

	_, err := store.Add(context.Background(), types.NewEmbedding([]float32{1}))
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.creates.Load())
}

func TestWeaviateStore_FailedCreateIsRetried(t *testing.T) {
	f := newFakeWeaviate(t)
	f.createStatus.Store(http.StatusInternalServerError)
	store := newTestWeaviateStore(t, f, false)

	_, err := store.Add(context.Background(), types.NewEmbedding([]float32{1}))
	assert.Equal(t, types.ErrStore, types.GetErrorCode(err))

	_, err = store.Add(context.Background(), types.NewEmbedding([]float32{1}))
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.creates.Load())
}

func TestWeaviateStore_ConcurrentFirstUseCreatesOnce(t *testing.T) {
	f := newFakeWeaviate(t)
	store := newTestWeaviateStore(t, f, false)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Add(context.Background(), types.NewEmbedding([]float32{1, 2}))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, f.creates.Load())
}

func TestWeaviateStore_BatchAndGraphQLErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/schema/{class}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, weaviateClass{Class: "Default"})
	})
	mux.HandleFunc("POST /v1/batch/objects", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"x","result":{"errors":{"error":[{"message":"vector lengths don't match"}]}}}]`))
	})
	mux.HandleFunc("POST /v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"Get":{"Default":null}},"errors":[{"message":"no such class"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store, err := NewWeaviateStore(WeaviateConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = store.Add(context.Background(), types.NewEmbedding([]float32{1}))
	assert.Equal(t, types.ErrStore, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "vector lengths don't match")

	_, err = store.FindRelevant(context.Background(), types.NewEmbedding([]float32{1}), 1, 0)
	assert.Equal(t, types.ErrStore, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "no such class")
}

func TestWeaviateStore_AuthIsExclusive(t *testing.T) {
	_, err := NewWeaviateStore(WeaviateConfig{BaseURL: "http://localhost:8080", APIKey: "k", Username: "u", Password: "p"})
	assert.True(t, types.IsContractViolation(err))

	_, err = NewWeaviateStore(WeaviateConfig{})
	assert.True(t, types.IsContractViolation(err))
}

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[0.1,-2,1e-05]", formatVector([]float32{0.1, -2, 1e-5}))
	assert.Equal(t, "[]", formatVector(nil))
}

func TestWeaviateClassName(t *testing.T) {
	assert.Equal(t, "Default", weaviateClassName(""))
	assert.Equal(t, "Docs", weaviateClassName("docs"))
	assert.Equal(t, "MyDocs", weaviateClassName("MyDocs"))
}
