package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/llmbridge/llm/providers"
	"github.com/BaSui01/llmbridge/types"
)

// Property names of the Weaviate class.
const (
	weaviateTextProperty     = "text"
	weaviateDocIDProperty    = "docId"
	weaviateMetadataProperty = "metadata"
)

// WeaviateConfig configures a WeaviateStore. The class always uses cosine
// distance, the only metric for which Weaviate reports a certainty.
type WeaviateConfig struct {
	BaseURL string
	// ClassName defaults to "Default". Weaviate capitalizes class names, so
	// the first letter is upper-cased here too.
	ClassName string

	// AvoidDups derives the id of a segment from its text, so adding the
	// same text twice overwrites one object.
	AvoidDups bool

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

// WeaviateStore is an EmbeddingStore backed by Weaviate's REST and GraphQL
// APIs. Weaviate reports a certainty, which is already a score.
type WeaviateStore struct {
	adder

	cfg    WeaviateConfig
	client *providers.Client
	class  *collectionGuard
	logger *zap.Logger
}

// weaviateNamespace seeds the deterministic object ids.
var weaviateNamespace = uuid.MustParse("6ba7b814-9dad-11d1-80b4-00c04fd430c8")

// NewWeaviateStore validates cfg and creates the store. The class is
// created lazily on first use.
func NewWeaviateStore(cfg WeaviateConfig) (*WeaviateStore, error) {
	cfg.ClassName = weaviateClassName(cfg.ClassName)
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := providers.NewClient(providers.ClientConfig{
		ProviderName:   "weaviate",
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

	s := &WeaviateStore{
		cfg:    cfg,
		client: client,
		logger: logger.With(zap.String("component", "weaviate_store"), zap.String("class", cfg.ClassName)),
	}
	s.class = newCollectionGuard(s.ensureClass)
	s.adder = adder{insert: s.insert}
	if cfg.AvoidDups {
		s.adder.newID = segmentID
	}
	return s, nil
}

func weaviateClassName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Default"
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

// segmentID hashes the segment text; embeddings without text get a random id.
func segmentID(segment *types.TextSegment) string {
	if segment == nil {
		return uuid.NewString()
	}
	return uuid.NewSHA1(weaviateNamespace, []byte(segment.Text)).String()
}

// objectID maps a caller id to a Weaviate object id. UUIDs are kept, any
// other id is hashed; the original is stored in the docId property.
func objectID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return uuid.NewSHA1(weaviateNamespace, []byte(id)).String()
}

type weaviateProperty struct {
	Name            string   `json:"name"`
	DataType        []string `json:"dataType"`
	IndexFilterable *bool    `json:"indexFilterable,omitempty"`
	IndexSearchable *bool    `json:"indexSearchable,omitempty"`
}

type weaviateClass struct {
	Class             string             `json:"class"`
	Vectorizer        string             `json:"vectorizer"`
	VectorIndexConfig map[string]any     `json:"vectorIndexConfig,omitempty"`
	Properties        []weaviateProperty `json:"properties,omitempty"`
}

type weaviateObject struct {
	Class      string         `json:"class"`
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
	Vector     []float32      `json:"vector"`
}

type weaviateBatchRequest struct {
	Objects []weaviateObject `json:"objects"`
}

type weaviateBatchResult struct {
	ID     string `json:"id"`
	Result struct {
		Errors *struct {
			Error []struct {
				Message string `json:"message"`
			} `json:"error"`
		} `json:"errors"`
	} `json:"result"`
}

type weaviateGraphQLRequest struct {
	Query string `json:"query"`
}

type weaviateHit struct {
	Text       *string `json:"text"`
	DocID      string  `json:"docId"`
	Metadata   string  `json:"metadata"`
	Additional struct {
		ID        string    `json:"id"`
		Certainty *float64  `json:"certainty"`
		Vector    []float32 `json:"vector"`
	} `json:"_additional"`
}

type weaviateGraphQLResponse struct {
	Data struct {
		Get map[string][]weaviateHit `json:"Get"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (s *WeaviateStore) ensureClass(ctx context.Context) (string, error) {
	path := "/v1/schema/" + url.PathEscape(s.cfg.ClassName)
	var existing weaviateClass
	err := s.client.Get(ctx, "get_class", path, &existing)
	if err == nil {
		return s.cfg.ClassName, nil
	}
	if !isStatus(err, http.StatusNotFound) {
		return "", storeError("weaviate", "failed to look up class "+s.cfg.ClassName, err)
	}

	no := false
	class := weaviateClass{
		Class:             s.cfg.ClassName,
		Vectorizer:        "none",
		VectorIndexConfig: map[string]any{"distance": "cosine"},
		Properties: []weaviateProperty{
			{Name: weaviateTextProperty, DataType: []string{"text"}},
			{Name: weaviateDocIDProperty, DataType: []string{"text"}},
			{Name: weaviateMetadataProperty, DataType: []string{"text"}, IndexFilterable: &no, IndexSearchable: &no},
		},
	}
	err = s.client.Post(ctx, "create_class", "/v1/schema", class, nil)
	switch {
	case err == nil:
		s.logger.Info("weaviate class created")
		return s.cfg.ClassName, nil
	case alreadyExists(err):
		if err := s.client.Get(ctx, "get_class", path, &existing); err != nil {
			return "", storeError("weaviate", "failed to look up class "+s.cfg.ClassName, err)
		}
		return s.cfg.ClassName, nil
	}
	return "", storeError("weaviate", "failed to create class "+s.cfg.ClassName, err)
}

func isStatus(err error, status int) bool {
	var pe *providers.ProviderError
	return errors.As(err, &pe) && pe.StatusCode == status
}

func (s *WeaviateStore) insert(ctx context.Context, ids []string, embs []types.Embedding, segments []types.TextSegment) error {
	class, err := s.class.get(ctx)
	if err != nil {
		return err
	}

	req := weaviateBatchRequest{Objects: make([]weaviateObject, len(ids))}
	for i, id := range ids {
		props := map[string]any{weaviateDocIDProperty: id}
		if segments != nil {
			props[weaviateTextProperty] = segments[i].Text
			if len(segments[i].Metadata) > 0 {
				meta, err := json.Marshal(segments[i].Metadata)
				if err != nil {
					return types.NewError(types.ErrInvalidRequest, "failed to encode metadata").WithCause(err)
				}
				props[weaviateMetadataProperty] = string(meta)
			}
		}
		req.Objects[i] = weaviateObject{
			Class:      class,
			ID:         objectID(id),
			Properties: props,
			Vector:     embs[i].Vector,
		}
	}

	var results []weaviateBatchResult
	if err := s.client.Post(ctx, "batch_add", "/v1/batch/objects", req, &results); err != nil {
		return storeError("weaviate", "failed to add objects", err)
	}
	for _, r := range results {
		if r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return types.NewError(types.ErrStore,
				fmt.Sprintf("weaviate: object %s rejected: %s", r.ID, r.Result.Errors.Error[0].Message)).
				WithProvider("weaviate")
		}
	}
	s.logger.Debug("weaviate batch add completed", zap.Int("count", len(ids)))
	return nil
}

// FindRelevant runs a nearVector query with certainty >= minScore.
func (s *WeaviateStore) FindRelevant(ctx context.Context, reference types.Embedding, maxResults int, minScore float64) ([]types.EmbeddingMatch, error) {
	if err := ValidateRelevanceQuery(maxResults, minScore); err != nil {
		return nil, err
	}
	if reference.Dimension() == 0 {
		return nil, types.NewContractError("reference embedding must not be empty")
	}
	class, err := s.class.get(ctx)
	if err != nil {
		return nil, err
	}

	var resp weaviateGraphQLResponse
	req := weaviateGraphQLRequest{Query: nearVectorQuery(class, reference.Vector, maxResults, minScore)}
	if err := s.client.Post(ctx, "query", "/v1/graphql", req, &resp); err != nil {
		return nil, storeError("weaviate", "failed to query class", err)
	}
	if len(resp.Errors) > 0 {
		return nil, types.NewError(types.ErrStore, "weaviate: graphql error: "+resp.Errors[0].Message).WithProvider("weaviate")
	}

	hits := resp.Data.Get[class]
	matches := make([]types.EmbeddingMatch, 0, len(hits))
	for _, h := range hits {
		m, err := matchFromHit(h)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return RankMatches(matches, maxResults, minScore), nil
}

func nearVectorQuery(class string, vector []float32, limit int, certainty float64) string {
	return fmt.Sprintf(`{ Get { %s(nearVector: {vector: %s, certainty: %s} limit: %d) { %s %s %s _additional { id certainty vector } } } }`,
		class, formatVector(vector), strconv.FormatFloat(certainty, 'g', -1, 64), limit,
		weaviateTextProperty, weaviateDocIDProperty, weaviateMetadataProperty)
}

func formatVector(vector []float32) string {
	var b strings.Builder
	b.Grow(len(vector) * 10)
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func matchFromHit(h weaviateHit) (types.EmbeddingMatch, error) {
	m := types.EmbeddingMatch{
		EmbeddingID: h.DocID,
		Embedding:   types.NewEmbedding(h.Additional.Vector),
	}
	if m.EmbeddingID == "" {
		m.EmbeddingID = h.Additional.ID
	}
	if h.Additional.Certainty != nil {
		m.Score = ScoreFromCertainty(*h.Additional.Certainty)
	}
	if h.Text != nil {
		var meta types.Metadata
		if h.Metadata != "" {
			if err := json.Unmarshal([]byte(h.Metadata), &meta); err != nil {
				return m, types.NewError(types.ErrDecode, "weaviate: invalid metadata for "+m.EmbeddingID).
					WithProvider("weaviate").WithCause(err)
			}
		}
		seg := types.TextSegment{Text: *h.Text, Metadata: meta}
		m.Embedded = &seg
	}
	return m, nil
}
