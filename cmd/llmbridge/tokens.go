package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BaSui01/llmbridge/llm/tokenizer"
)

func (a *App) newTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [text...]",
		Short: "Count tokens offline",
		Long: `Count the tokens of the arguments, joined by spaces, for the selected model.
OpenAI models use their tiktoken encoding; other models use a character estimate.

Examples:
  llmbridge tokens "How many tokens is this?"
  llmbridge tokens --provider ollama "..." --json`,
		RunE: func(_ *cobra.Command, args []string) error {
			return a.runTokens(args)
		},
	}
}

type tokensOutput struct {
	Model     string `json:"model"`
	Tokenizer string `json:"tokenizer"`
	Tokens    int    `json:"tokens"`
	MaxTokens int    `json:"max_tokens"`
}

func (a *App) runTokens(args []string) error {
	if len(args) == 0 {
		return exitWithCode(ExitValidation, errors.New("nothing to count: pass text as arguments"))
	}
	model := a.model
	if model == "" {
		switch a.provider {
		case providerOllama:
			model = a.cfg.Ollama.ChatModel
		default:
			model = a.cfg.OpenAI.ChatModel
		}
	}
	tk := tokenizer.ForModel(model)
	n, err := tk.CountTokens(strings.Join(args, " "))
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	out := tokensOutput{Model: model, Tokenizer: tk.Name(), Tokens: n, MaxTokens: tk.MaxTokens()}
	if a.jsonOutput {
		return a.printJSON(out)
	}
	a.printf("%d tokens (%s, context %d)\n", out.Tokens, out.Tokenizer, out.MaxTokens)
	return nil
}
