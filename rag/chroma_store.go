package rag

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/llmbridge/llm/providers"
	"github.com/BaSui01/llmbridge/types"
)

// ChromaConfig configures a ChromaStore.
type ChromaConfig struct {
	BaseURL        string
	CollectionName string // default "default"
	Distance       string // hnsw:space for new collections: cosine (default), l2, ip

	// APIKey is sent as a bearer token. Mutually exclusive with Username/Password.
	APIKey   string
	Username string
	Password string

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	LogRequests    bool
	LogResponses   bool

	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    providers.RequestObserver
}

// ChromaStore is an EmbeddingStore backed by Chroma's REST API. Chroma
// reports a distance, which is converted with ScoreFromCosineDistance.
type ChromaStore struct {
	adder

	cfg        ChromaConfig
	client     *providers.Client
	collection *collectionGuard
	logger     *zap.Logger
}

// NewChromaStore validates cfg and creates the store. The collection is
// resolved lazily on first use.
func NewChromaStore(cfg ChromaConfig) (*ChromaStore, error) {
	if cfg.CollectionName == "" {
		cfg.CollectionName = "default"
	}
	if cfg.Distance == "" {
		cfg.Distance = "cosine"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := providers.NewClient(providers.ClientConfig{
		ProviderName:   "chroma",
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		BasicAuth:      basicAuth(cfg.Username, cfg.Password),
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		LogRequests:    cfg.LogRequests,
		LogResponses:   cfg.LogResponses,
		HTTPClient:     cfg.HTTPClient,
		Logger:         logger,
		Metrics:        cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}

	s := &ChromaStore{
		cfg:    cfg,
		client: client,
		logger: logger.With(zap.String("component", "chroma_store"), zap.String("collection", cfg.CollectionName)),
	}
	s.collection = newCollectionGuard(s.ensureCollection)
	s.adder = adder{insert: s.insert}
	return s, nil
}

func basicAuth(username, password string) *providers.BasicAuth {
	if username == "" && password == "" {
		return nil
	}
	return &providers.BasicAuth{Username: username, Password: password}
}

type chromaCollection struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type chromaCreateCollection struct {
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type chromaAddRequest struct {
	IDs        []string            `json:"ids"`
	Embeddings [][]float32         `json:"embeddings"`
	Metadatas  []map[string]string `json:"metadatas,omitempty"`
	Documents  []*string           `json:"documents,omitempty"`
}

type chromaQueryRequest struct {
	QueryEmbeddings [][]float32    `json:"query_embeddings"`
	NResults        int            `json:"n_results"`
	Where           map[string]any `json:"where,omitempty"`
	Include         []string       `json:"include"`
}

type chromaQueryResponse struct {
	IDs        [][]string            `json:"ids"`
	Distances  [][]float64           `json:"distances"`
	Embeddings [][][]float32         `json:"embeddings"`
	Documents  [][]*string           `json:"documents"`
	Metadatas  [][]map[string]string `json:"metadatas"`
}

func (s *ChromaStore) collectionPath(name string) string {
	return "/api/v1/collections/" + url.PathEscape(name)
}

// ensureCollection returns the id of the configured collection, creating it
// with the configured distance when absent.
func (s *ChromaStore) ensureCollection(ctx context.Context) (string, error) {
	var existing chromaCollection
	err := s.client.Get(ctx, "get_collection", s.collectionPath(s.cfg.CollectionName), &existing)
	if err == nil {
		return existing.ID, nil
	}
	if !chromaCollectionMissing(err) {
		return "", storeError("chroma", "failed to look up collection "+s.cfg.CollectionName, err)
	}

	var created chromaCollection
	err = s.client.Post(ctx, "create_collection", "/api/v1/collections", chromaCreateCollection{
		Name:     s.cfg.CollectionName,
		Metadata: map[string]any{"hnsw:space": s.cfg.Distance},
	}, &created)
	switch {
	case err == nil:
		s.logger.Info("chroma collection created", zap.String("id", created.ID))
		return created.ID, nil
	case alreadyExists(err):
		// Lost a creation race with another client.
		if err := s.client.Get(ctx, "get_collection", s.collectionPath(s.cfg.CollectionName), &existing); err != nil {
			return "", storeError("chroma", "failed to look up collection "+s.cfg.CollectionName, err)
		}
		return existing.ID, nil
	}
	return "", storeError("chroma", "failed to create collection "+s.cfg.CollectionName, err)
}

// Older Chroma servers answer a missing collection with 500 and a
// "does not exist" message instead of 404.
func chromaCollectionMissing(err error) bool {
	var pe *providers.ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.StatusCode == http.StatusNotFound || strings.Contains(strings.ToLower(pe.Body), "does not exist")
}

func alreadyExists(err error) bool {
	var pe *providers.ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.StatusCode {
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return strings.Contains(strings.ToLower(pe.Body), "already exists")
}

func (s *ChromaStore) insert(ctx context.Context, ids []string, embs []types.Embedding, segments []types.TextSegment) error {
	id, err := s.collection.get(ctx)
	if err != nil {
		return err
	}

	req := chromaAddRequest{IDs: ids, Embeddings: make([][]float32, len(embs))}
	for i, e := range embs {
		req.Embeddings[i] = e.Vector
	}
	if segments != nil {
		req.Documents = make([]*string, len(segments))
		req.Metadatas = make([]map[string]string, len(segments))
		for i := range segments {
			req.Documents[i] = &segments[i].Text
			// Chroma rejects an empty metadata object.
			if len(segments[i].Metadata) > 0 {
				req.Metadatas[i] = segments[i].Metadata
			}
		}
	}

	if err := s.client.Post(ctx, "add", "/api/v1/collections/"+url.PathEscape(id)+"/add", req, nil); err != nil {
		if chromaCollectionMissing(err) {
			s.collection.reset()
		}
		return storeError("chroma", "failed to add embeddings", err)
	}
	s.logger.Debug("chroma add completed", zap.Int("count", len(ids)))
	return nil
}

// FindRelevant queries the collection and converts each distance d to the
// score 1-d.
func (s *ChromaStore) FindRelevant(ctx context.Context, reference types.Embedding, maxResults int, minScore float64) ([]types.EmbeddingMatch, error) {
	return s.FindRelevantWhere(ctx, reference, maxResults, minScore, nil)
}

// FindRelevantWhere is FindRelevant restricted to entries whose metadata
// equals every key/value pair in where.
func (s *ChromaStore) FindRelevantWhere(ctx context.Context, reference types.Embedding, maxResults int, minScore float64, where types.Metadata) ([]types.EmbeddingMatch, error) {
	if err := ValidateRelevanceQuery(maxResults, minScore); err != nil {
		return nil, err
	}
	if reference.Dimension() == 0 {
		return nil, types.NewContractError("reference embedding must not be empty")
	}
	id, err := s.collection.get(ctx)
	if err != nil {
		return nil, err
	}

	req := chromaQueryRequest{
		QueryEmbeddings: [][]float32{reference.Vector},
		NResults:        maxResults,
		Where:           chromaWhere(where),
		Include:         []string{"metadatas", "documents", "distances", "embeddings"},
	}
	var resp chromaQueryResponse
	if err := s.client.Post(ctx, "query", "/api/v1/collections/"+url.PathEscape(id)+"/query", req, &resp); err != nil {
		return nil, storeError("chroma", "failed to query collection", err)
	}
	return RankMatches(chromaMatches(resp), maxResults, minScore), nil
}

// chromaWhere builds an equality filter; several keys are combined with $and.
func chromaWhere(where types.Metadata) map[string]any {
	switch len(where) {
	case 0:
		return nil
	case 1:
		for k, v := range where {
			return map[string]any{k: v}
		}
	}
	clauses := make([]map[string]any, 0, len(where))
	for k, v := range where {
		clauses = append(clauses, map[string]any{k: v})
	}
	return map[string]any{"$and": clauses}
}

// chromaMatches reads the first (only) query's columns.
func chromaMatches(resp chromaQueryResponse) []types.EmbeddingMatch {
	if len(resp.IDs) == 0 {
		return nil
	}
	ids := resp.IDs[0]
	matches := make([]types.EmbeddingMatch, 0, len(ids))
	for i, id := range ids {
		m := types.EmbeddingMatch{EmbeddingID: id}
		if d, ok := column(resp.Distances, i); ok {
			m.Score = ScoreFromCosineDistance(d)
		}
		if vec, ok := column(resp.Embeddings, i); ok {
			m.Embedding = types.NewEmbedding(vec)
		}
		if doc, ok := column(resp.Documents, i); ok && doc != nil {
			meta, _ := column(resp.Metadatas, i)
			seg := types.NewTextSegmentWithMetadata(*doc, meta)
			m.Embedded = &seg
		}
		matches = append(matches, m)
	}
	return matches
}

// column returns cols[0][i] when present.
func column[T any](cols [][]T, i int) (T, bool) {
	var zero T
	if len(cols) == 0 || i >= len(cols[0]) {
		return zero, false
	}
	return cols[0][i], true
}

func storeError(store, msg string, err error) error {
	var te *types.Error
	if errors.As(err, &te) && te.Code == types.ErrInvalidRequest && te.HTTPStatus == 0 {
		return err
	}
	return types.NewError(types.ErrStore, store+": "+msg).WithProvider(store).WithCause(err)
}
