package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/BaSui01/llmbridge/config"
	"github.com/BaSui01/llmbridge/internal/metrics"
	"github.com/BaSui01/llmbridge/internal/server"
	"github.com/BaSui01/llmbridge/internal/telemetry"
	"github.com/BaSui01/llmbridge/types"
)

// =============================================================================
// 🚪 退出码
// =============================================================================

const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitProvider   = 2
	ExitNetwork    = 3
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

func exitWithCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// classify maps a library error to an exit code: contract violations are
// the caller's fault, transport failures are network errors, and anything
// the upstream answered with is a provider error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	switch {
	case types.IsContractViolation(err):
		return exitWithCode(ExitValidation, err)
	case types.GetErrorCode(err) == types.ErrTransport,
		errors.Is(err, context.DeadlineExceeded):
		return exitWithCode(ExitNetwork, err)
	}
	return exitWithCode(ExitProvider, err)
}

// =============================================================================
// 📦 App
// =============================================================================

// AppOption customizes App dependencies.
type AppOption func(*App)

// WithIO replaces the process streams.
func WithIO(stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// WithStdin replaces the input stream read by commands that accept piped text.
func WithStdin(r io.Reader) AppOption {
	return func(a *App) {
		if r != nil {
			a.stdin = r
		}
	}
}

// WithLogger bypasses the log section of the config.
func WithLogger(logger *zap.Logger) AppOption {
	return func(a *App) { a.fixedLogger = logger }
}

// App holds the CLI state shared by every command.
type App struct {
	root *cobra.Command

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// global flags
	cfgFile    string
	provider   string
	model      string
	jsonOutput bool
	verbose    bool

	cfg         *config.Config
	fixedLogger *zap.Logger
	logger      *zap.Logger
	registry    *prometheus.Registry
	collector   *metrics.Collector
	otel        *telemetry.Providers
	metricsSrv  *server.Manager
}

// NewApp builds the command tree.
func NewApp(opts ...AppOption) *App {
	a := &App{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "llmbridge",
		Short: "llmbridge - chat, embeddings, images, moderation and vector search",
		Long: `llmbridge talks to OpenAI and Ollama models and to Chroma and Weaviate
vector stores through one configuration file.

Configuration priority: defaults, then the YAML file, then LLMBRIDGE_* variables.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd.CommandPath())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(context.WithoutCancel(cmd.Context()))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.provider, "provider", providerOpenAI, "model provider (openai, ollama)")
	root.PersistentFlags().StringVar(&a.model, "model", "", "model name (defaults to the configured one)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(
		a.newChatCommand(),
		a.newEmbedCommand(),
		a.newImageCommand(),
		a.newModerateCommand(),
		a.newStoreCommand(),
		a.newTokensCommand(),
		a.newVersionCommand(),
	)
	return root
}

// Execute runs the command tree with args.
func (a *App) Execute(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	err := a.root.ExecuteContext(ctx)
	if err != nil {
		// PersistentPostRunE is skipped when RunE fails.
		_ = a.teardown(context.WithoutCancel(ctx))
		fmt.Fprintln(a.stderr, "Error:", err)
	}
	return err
}

// =============================================================================
// 🔧 生命周期
// =============================================================================

func (a *App) setup(ctx context.Context, command string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	loader := config.NewLoader().WithValidator((*config.Config).Validate)
	if a.cfgFile != "" {
		loader = loader.WithConfigPath(a.cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	a.cfg = cfg

	if a.fixedLogger != nil {
		a.logger = a.fixedLogger
	} else {
		logCfg := cfg.Log
		if a.verbose {
			logCfg.Level = "debug"
		}
		a.logger = initLogger(logCfg)
	}

	a.otel, err = telemetry.Init(ctx, cfg.Telemetry, a.logger,
		telemetry.WithAttributes(attribute.String("llmbridge.command", command)))
	if err != nil {
		a.logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector())
	a.collector = metrics.NewCollector(cfg.Metrics.Namespace, a.registry, a.logger)

	if cfg.Metrics.Enabled {
		srvCfg := server.DefaultConfig()
		srvCfg.Addr = cfg.Metrics.Addr
		a.metricsSrv = server.NewManager(server.MetricsHandler(a.registry), srvCfg, a.logger)
		if err := a.metricsSrv.Start(); err != nil {
			a.logger.Warn("metrics endpoint unavailable", zap.Error(err))
			a.metricsSrv = nil
		}
	}
	return nil
}

func (a *App) teardown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	if a.metricsSrv != nil {
		errs = append(errs, a.metricsSrv.Shutdown(ctx))
		a.metricsSrv = nil
	}
	if a.otel != nil {
		errs = append(errs, a.otel.Shutdown(ctx))
		a.otel = nil
	}
	if a.logger != nil && a.fixedLogger == nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

// =============================================================================
// 🖨️ 输出
// =============================================================================

// readPiped returns stdin when it is not an interactive terminal.
func (a *App) readPiped() (string, error) {
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", nil
	}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

// usageJSON flattens a TokenUsage, leaving unknown counts out.
func usageJSON(u types.TokenUsage) map[string]int {
	out := map[string]int{}
	if u.InputTokens != nil {
		out["input_tokens"] = *u.InputTokens
	}
	if u.OutputTokens != nil {
		out["output_tokens"] = *u.OutputTokens
	}
	if u.TotalTokens != nil {
		out["total_tokens"] = *u.TotalTokens
	}
	return out
}

func (a *App) reportUsage(model string, u types.TokenUsage) {
	a.collector.RecordTokenUsage(a.provider, model, u)
	if a.verbose && u.TotalTokens != nil {
		fmt.Fprintf(a.stderr, "usage: %d input + %d output = %d total tokens\n", u.Input(), u.Output(), u.Total())
	}
}
