package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/BaSui01/llmbridge/llm/tokenizer"
	"github.com/BaSui01/llmbridge/types"
)

type chatFlags struct {
	prompt   string
	system   string
	estimate bool
}

func (a *App) newChatCommand() *cobra.Command {
	var f chatFlags
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send one chat request",
		Long: `Send a system and user message to the chat model and print the reply.

Examples:
  llmbridge chat --prompt "Hello"
  llmbridge chat --provider ollama --model llama3 --prompt "Hello" --json
  llmbridge chat --prompt "Hello" --estimate
  echo "Hello" | llmbridge chat`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runChat(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "user message (read from stdin when omitted)")
	cmd.Flags().StringVar(&f.system, "system", "", "system message")
	cmd.Flags().BoolVar(&f.estimate, "estimate", false, "print the estimated prompt tokens before sending")
	return cmd
}

type chatOutput struct {
	Model           string         `json:"model"`
	Text            string         `json:"text"`
	FinishReason    string         `json:"finish_reason,omitempty"`
	Usage           map[string]int `json:"usage,omitempty"`
	EstimatedTokens *int           `json:"estimated_prompt_tokens,omitempty"`
}

func (a *App) runChat(cmd *cobra.Command, f chatFlags) error {
	if f.prompt == "" {
		piped, err := a.readPiped()
		if err != nil {
			return exitWithCode(ExitValidation, err)
		}
		f.prompt = piped
	}
	if f.prompt == "" {
		return exitWithCode(ExitValidation, errors.New("--prompt must not be empty"))
	}
	model, name, err := a.chatModel()
	if err != nil {
		return classify(err)
	}

	var messages []types.ChatMessage
	if f.system != "" {
		messages = append(messages, types.NewSystemMessage(f.system))
	}
	messages = append(messages, types.NewUserMessage(f.prompt))

	out := chatOutput{Model: name}
	if f.estimate {
		n, err := tokenizer.ForModel(name).CountMessages(messages)
		if err != nil {
			return classify(err)
		}
		out.EstimatedTokens = &n
		if !a.jsonOutput {
			a.printf("estimated prompt tokens: %d\n", n)
		}
	}

	resp, err := model.Generate(cmd.Context(), messages...)
	if err != nil {
		return classify(err)
	}
	a.reportUsage(name, resp.TokenUsage)

	out.Text = resp.Content.Text()
	out.FinishReason = string(resp.FinishReason)
	out.Usage = usageJSON(resp.TokenUsage)
	if a.jsonOutput {
		return a.printJSON(out)
	}
	a.printf("%s\n", out.Text)
	return nil
}
