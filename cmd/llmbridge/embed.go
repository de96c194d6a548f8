package main

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BaSui01/llmbridge/types"
)

func (a *App) newEmbedCommand() *cobra.Command {
	var texts []string
	cmd := &cobra.Command{
		Use:   "embed [text...]",
		Short: "Embed one or more texts",
		Long: `Embed each argument (or --text value) and print one vector per input, in order.

Examples:
  llmbridge embed "first text" "second text"
  llmbridge embed --provider ollama --text "hello" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEmbed(cmd, append(texts, args...))
		},
	}
	cmd.Flags().StringArrayVar(&texts, "text", nil, "text to embed (repeatable)")
	return cmd
}

type embedOutput struct {
	Model      string         `json:"model"`
	Dimension  int            `json:"dimension"`
	Embeddings [][]float32    `json:"embeddings"`
	Usage      map[string]int `json:"usage,omitempty"`
}

func (a *App) runEmbed(cmd *cobra.Command, texts []string) error {
	if len(texts) == 0 {
		return exitWithCode(ExitValidation, errors.New("nothing to embed: pass texts as arguments or --text"))
	}
	model, name, err := a.embeddingModel()
	if err != nil {
		return classify(err)
	}
	resp, err := model.EmbedAll(cmd.Context(), types.TextSegments(texts...))
	if err != nil {
		return classify(err)
	}
	a.reportUsage(name, resp.TokenUsage)

	out := embedOutput{Model: name, Usage: usageJSON(resp.TokenUsage)}
	for _, e := range resp.Content {
		out.Embeddings = append(out.Embeddings, e.Vector)
	}
	if len(resp.Content) > 0 {
		out.Dimension = resp.Content[0].Dimension()
	}
	if a.jsonOutput {
		return a.printJSON(out)
	}
	for i, e := range resp.Content {
		a.printf("%d\tdim=%d\t%s\n", i, e.Dimension(), preview(e.Vector, 4))
	}
	return nil
}

// preview renders the first n components.
func preview(v []float32, n int) string {
	if len(v) <= n {
		return formatFloats(v)
	}
	return formatFloats(v[:n]) + "..."
}

func formatFloats(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'g', 6, 32)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
