package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/llmbridge/rag"
	"github.com/BaSui01/llmbridge/types"
)

type storeFlags struct {
	kind       string
	docs       []string
	meta       []string
	text       string
	maxResults int
	minScore   float64
}

func (a *App) newStoreCommand() *cobra.Command {
	f := &storeFlags{}
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Index and search text in a vector store",
		Long: `Embed documents with the selected provider and store them, or find the
documents most relevant to a query. Scores are in [0, 1], higher is closer.

The memory store lives only for one invocation, so seed it with --doc on query.`,
	}
	cmd.PersistentFlags().StringVar(&f.kind, "store", storeMemory, "vector store (memory, chroma, weaviate)")
	cmd.PersistentFlags().StringArrayVar(&f.docs, "doc", nil, "document text to index (repeatable)")
	cmd.PersistentFlags().StringArrayVar(&f.meta, "meta", nil, "metadata key=value attached to every --doc (repeatable)")

	add := &cobra.Command{
		Use:   "add",
		Short: "Embed and store documents",
		Example: `  llmbridge store add --store chroma --doc "Paris is in France" --doc "Berlin is in Germany"
  llmbridge store add --store weaviate --doc "..." --meta source=wiki`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStoreAdd(cmd, f)
		},
	}

	query := &cobra.Command{
		Use:   "query",
		Short: "Find the documents most relevant to a text",
		Example: `  llmbridge store query --store chroma --text "capital of France" --max-results 3
  llmbridge store query --doc "a" --doc "b" --text "a" --min-score 0.8`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStoreQuery(cmd, f)
		},
	}
	query.Flags().StringVar(&f.text, "text", "", "query text (required)")
	query.Flags().IntVar(&f.maxResults, "max-results", 4, "maximum number of matches")
	query.Flags().Float64Var(&f.minScore, "min-score", 0, "minimum relevance score in [0, 1]")
	_ = query.MarkFlagRequired("text")

	cmd.AddCommand(add, query)
	return cmd
}

func parseMeta(pairs []string) (types.Metadata, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := types.Metadata{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --meta %q, want key=value", p)
		}
		meta[k] = v
	}
	return meta, nil
}

// index embeds f.docs and adds them to store.
func (a *App) index(ctx context.Context, store rag.EmbeddingStore, f *storeFlags) ([]string, error) {
	meta, err := parseMeta(f.meta)
	if err != nil {
		return nil, exitWithCode(ExitValidation, err)
	}
	model, name, err := a.embeddingModel()
	if err != nil {
		return nil, err
	}
	segments := make([]types.TextSegment, 0, len(f.docs))
	for _, d := range f.docs {
		segments = append(segments, types.NewTextSegmentWithMetadata(d, meta))
	}
	resp, err := model.EmbedAll(ctx, segments)
	if err != nil {
		return nil, err
	}
	a.reportUsage(name, resp.TokenUsage)

	ids, err := store.AddAllWithSegments(ctx, resp.Content, segments)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("documents indexed", zap.String("store", f.kind), zap.Int("count", len(ids)))
	return ids, nil
}

func (a *App) runStoreAdd(cmd *cobra.Command, f *storeFlags) error {
	if len(f.docs) == 0 {
		return exitWithCode(ExitValidation, errors.New("nothing to add: pass --doc"))
	}
	store, err := a.embeddingStore(f.kind)
	if err != nil {
		return classify(err)
	}
	ids, err := a.index(cmd.Context(), store, f)
	if err != nil {
		return classify(err)
	}
	if a.jsonOutput {
		return a.printJSON(map[string]any{"store": f.kind, "ids": ids})
	}
	for _, id := range ids {
		a.printf("%s\n", id)
	}
	return nil
}

type matchOutput struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Text     string         `json:"text,omitempty"`
	Metadata types.Metadata `json:"metadata,omitempty"`
}

func (a *App) runStoreQuery(cmd *cobra.Command, f *storeFlags) error {
	if err := rag.ValidateRelevanceQuery(f.maxResults, f.minScore); err != nil {
		return classify(err)
	}
	if strings.TrimSpace(f.text) == "" {
		return exitWithCode(ExitValidation, errors.New("--text must not be empty"))
	}
	store, err := a.embeddingStore(f.kind)
	if err != nil {
		return classify(err)
	}
	ctx := cmd.Context()
	if len(f.docs) > 0 {
		if _, err := a.index(ctx, store, f); err != nil {
			return classify(err)
		}
	}

	model, name, err := a.embeddingModel()
	if err != nil {
		return classify(err)
	}
	ref, err := model.Embed(ctx, f.text)
	if err != nil {
		return classify(err)
	}
	a.reportUsage(name, ref.TokenUsage)

	matches, err := store.FindRelevant(ctx, ref.Content, f.maxResults, f.minScore)
	if err != nil {
		return classify(err)
	}
	a.collector.RecordStoreQuery(f.kind, len(matches))

	out := make([]matchOutput, 0, len(matches))
	for _, m := range matches {
		mo := matchOutput{ID: m.EmbeddingID, Score: m.Score}
		if m.Embedded != nil {
			mo.Text = m.Embedded.Text
			mo.Metadata = m.Embedded.Metadata
		}
		out = append(out, mo)
	}
	if a.jsonOutput {
		return a.printJSON(map[string]any{"store": f.kind, "matches": out})
	}
	for _, m := range out {
		a.printf("%.4f\t%s\t%s\n", m.Score, m.ID, m.Text)
	}
	return nil
}
