package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/BaSui01/llmbridge/types"
)

func (a *App) newModerateCommand() *cobra.Command {
	var texts []string
	cmd := &cobra.Command{
		Use:   "moderate [text...]",
		Short: "Check texts against the moderation policy (openai)",
		Long: `Moderate each argument as one chat message. The first flagged text is reported.

Examples:
  llmbridge moderate "some user input"
  llmbridge moderate --text "first" --text "second" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runModerate(cmd, append(texts, args...))
		},
	}
	cmd.Flags().StringArrayVar(&texts, "text", nil, "text to moderate (repeatable)")
	return cmd
}

type moderateOutput struct {
	Model       string `json:"model"`
	Flagged     bool   `json:"flagged"`
	FlaggedText string `json:"flagged_text,omitempty"`
}

func (a *App) runModerate(cmd *cobra.Command, texts []string) error {
	if len(texts) == 0 {
		return exitWithCode(ExitValidation, errors.New("nothing to moderate: pass texts as arguments or --text"))
	}
	model, name, err := a.moderationModel()
	if err != nil {
		return classify(err)
	}

	messages := make([]types.ChatMessage, 0, len(texts))
	for _, t := range texts {
		messages = append(messages, types.NewUserMessage(t))
	}
	resp, err := model.ModerateMessages(cmd.Context(), messages)
	if err != nil {
		return classify(err)
	}

	out := moderateOutput{Model: name, Flagged: resp.Content.Flagged, FlaggedText: resp.Content.FlaggedText}
	if a.jsonOutput {
		return a.printJSON(out)
	}
	if out.Flagged {
		a.printf("flagged: %s\n", out.FlaggedText)
	} else {
		a.printf("not flagged\n")
	}
	return nil
}
