package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

type imageFlags struct {
	prompt string
	n      int
	size   string
	outDir string
}

func (a *App) newImageCommand() *cobra.Command {
	var f imageFlags
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Generate images (openai)",
		Long: `Generate images from a prompt. Without --out the hosted URLs are printed;
with --out the images are requested inline and written as PNG files.

Examples:
  llmbridge image --prompt "a lighthouse at dusk"
  llmbridge image --prompt "a lighthouse" --n 2 --out ./images`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runImage(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "image prompt (required)")
	cmd.Flags().IntVar(&f.n, "n", 1, "number of images")
	cmd.Flags().StringVar(&f.size, "size", "", "image size, e.g. 1024x1024")
	cmd.Flags().StringVar(&f.outDir, "out", "", "directory to write PNG files to")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

type imageOutput struct {
	Model  string       `json:"model"`
	Images []imageEntry `json:"images"`
}

type imageEntry struct {
	URL           string `json:"url,omitempty"`
	File          string `json:"file,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

func (a *App) runImage(cmd *cobra.Command, f imageFlags) error {
	if f.prompt == "" {
		return exitWithCode(ExitValidation, errors.New("--prompt must not be empty"))
	}
	if f.n < 1 {
		return exitWithCode(ExitValidation, fmt.Errorf("--n must be at least 1, got %d", f.n))
	}
	model, name, err := a.imageModel(f.size, f.outDir != "")
	if err != nil {
		return classify(err)
	}
	resp, err := model.GenerateN(cmd.Context(), f.prompt, f.n)
	if err != nil {
		return classify(err)
	}

	out := imageOutput{Model: name}
	for i, img := range resp.Content {
		entry := imageEntry{RevisedPrompt: img.RevisedPrompt}
		if img.URL != nil {
			entry.URL = img.URL.String()
		}
		if f.outDir != "" && img.Base64Data != "" {
			path, err := writeImage(f.outDir, i, img.Base64Data)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			entry.File = path
		}
		out.Images = append(out.Images, entry)
	}

	if a.jsonOutput {
		return a.printJSON(out)
	}
	for _, e := range out.Images {
		if e.File != "" {
			a.printf("%s\n", e.File)
		} else {
			a.printf("%s\n", e.URL)
		}
	}
	return nil
}

func writeImage(dir string, i int, data string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("decode image %d: %w", i, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("image-%d.png", i+1))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write image %d: %w", i, err)
	}
	return path, nil
}
