package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

// 构建时通过 -ldflags 注入
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(_ *cobra.Command, _ []string) error {
			if a.jsonOutput {
				return a.printJSON(map[string]string{
					"version":    Version,
					"build_time": BuildTime,
					"git_commit": GitCommit,
					"go":         runtime.Version(),
					"platform":   runtime.GOOS + "/" + runtime.GOARCH,
				})
			}
			a.printf("llmbridge %s\n", Version)
			a.printf("  Build Time: %s\n", BuildTime)
			a.printf("  Git Commit: %s\n", GitCommit)
			a.printf("  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
