package ollama

import "slices"

// Default option values.
const (
	DefaultChatModel      = "llama3"
	DefaultEmbeddingModel = "nomic-embed-text"

	DefaultTemperature   = 0.8
	DefaultTopK          = 40
	DefaultTopP          = 0.9
	DefaultRepeatPenalty = 1.1
	DefaultNumCtx        = 2048
)

// ChatOptions configures a ChatModel. Zero NumPredict leaves the output
// length to the server; Format "json" forces JSON output.
type ChatOptions struct {
	ModelName     string
	Temperature   float64
	TopK          int
	TopP          float64
	RepeatPenalty float64
	Seed          *int
	NumPredict    int
	NumCtx        int
	Stop          []string
	Format        string
	KeepAlive     string
}

// DefaultChatOptions returns the documented defaults.
func DefaultChatOptions() ChatOptions {
	return ChatOptions{
		ModelName:     DefaultChatModel,
		Temperature:   DefaultTemperature,
		TopK:          DefaultTopK,
		TopP:          DefaultTopP,
		RepeatPenalty: DefaultRepeatPenalty,
		NumCtx:        DefaultNumCtx,
	}
}

func (o ChatOptions) clone() ChatOptions {
	o.Stop = slices.Clone(o.Stop)
	if o.Seed != nil {
		seed := *o.Seed
		o.Seed = &seed
	}
	return o
}

type ChatOptionsBuilder struct {
	opts ChatOptions
}

// NewChatOptions starts a builder from DefaultChatOptions.
func NewChatOptions() *ChatOptionsBuilder {
	return &ChatOptionsBuilder{opts: DefaultChatOptions()}
}

func (b *ChatOptionsBuilder) ModelName(name string) *ChatOptionsBuilder {
	b.opts.ModelName = name
	return b
}

func (b *ChatOptionsBuilder) Temperature(t float64) *ChatOptionsBuilder {
	b.opts.Temperature = t
	return b
}

func (b *ChatOptionsBuilder) TopK(k int) *ChatOptionsBuilder {
	b.opts.TopK = k
	return b
}

func (b *ChatOptionsBuilder) TopP(p float64) *ChatOptionsBuilder {
	b.opts.TopP = p
	return b
}

func (b *ChatOptionsBuilder) RepeatPenalty(p float64) *ChatOptionsBuilder {
	b.opts.RepeatPenalty = p
	return b
}

func (b *ChatOptionsBuilder) Seed(seed int) *ChatOptionsBuilder {
	b.opts.Seed = &seed
	return b
}

func (b *ChatOptionsBuilder) NumPredict(n int) *ChatOptionsBuilder {
	b.opts.NumPredict = n
	return b
}

func (b *ChatOptionsBuilder) NumCtx(n int) *ChatOptionsBuilder {
	b.opts.NumCtx = n
	return b
}

func (b *ChatOptionsBuilder) Stop(stop ...string) *ChatOptionsBuilder {
	b.opts.Stop = stop
	return b
}

func (b *ChatOptionsBuilder) Format(format string) *ChatOptionsBuilder {
	b.opts.Format = format
	return b
}

// KeepAlive sets how long the server keeps the model loaded, e.g. "5m".
func (b *ChatOptionsBuilder) KeepAlive(d string) *ChatOptionsBuilder {
	b.opts.KeepAlive = d
	return b
}

// Build returns an independent copy of the options.
func (b *ChatOptionsBuilder) Build() *ChatOptions {
	o := b.opts.clone()
	return &o
}

func (o ChatOptions) request() *ChatRequest {
	wo := &Options{
		Temperature:   ptr(o.Temperature),
		TopK:          ptr(o.TopK),
		TopP:          ptr(o.TopP),
		RepeatPenalty: ptr(o.RepeatPenalty),
		Seed:          o.Seed,
		Stop:          slices.Clone(o.Stop),
	}
	if o.NumPredict != 0 {
		wo.NumPredict = ptr(o.NumPredict)
	}
	if o.NumCtx > 0 {
		wo.NumCtx = ptr(o.NumCtx)
	}
	return &ChatRequest{
		Model:     o.ModelName,
		Format:    o.Format,
		Options:   wo,
		KeepAlive: o.KeepAlive,
	}
}

// EmbeddingOptions configures an EmbeddingModel.
type EmbeddingOptions struct {
	ModelName string
	KeepAlive string
}

// DefaultEmbeddingOptions returns the documented defaults.
func DefaultEmbeddingOptions() EmbeddingOptions {
	return EmbeddingOptions{ModelName: DefaultEmbeddingModel}
}

type EmbeddingOptionsBuilder struct {
	opts EmbeddingOptions
}

// NewEmbeddingOptions starts a builder from DefaultEmbeddingOptions.
func NewEmbeddingOptions() *EmbeddingOptionsBuilder {
	return &EmbeddingOptionsBuilder{opts: DefaultEmbeddingOptions()}
}

func (b *EmbeddingOptionsBuilder) ModelName(name string) *EmbeddingOptionsBuilder {
	b.opts.ModelName = name
	return b
}

func (b *EmbeddingOptionsBuilder) KeepAlive(d string) *EmbeddingOptionsBuilder {
	b.opts.KeepAlive = d
	return b
}

func (b *EmbeddingOptionsBuilder) Build() *EmbeddingOptions {
	o := b.opts
	return &o
}

func ptr[T any](v T) *T { return &v }
