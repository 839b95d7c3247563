package adapter

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// Generator is the text-completion service: one prompt in, raw text out. The text is not
// guaranteed to be well formed even when JSON output is requested.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)
}

// Embedder turns text into fixed-length vectors. For a fixed model, the same text always yields
// the same vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GenerateConfig collects per-call generation hints. Providers ignore hints they cannot honour.
type GenerateConfig struct {
	JSON        bool
	Schema      *jsonschema.Schema
	Temperature *float32
}

type GenerateOption func(*GenerateConfig)

// WithJSON asks the provider for JSON output.
func WithJSON() GenerateOption {
	return func(c *GenerateConfig) {
		c.JSON = true
	}
}

// WithSchema asks for JSON output constrained to schema where the provider supports it.
func WithSchema(schema *jsonschema.Schema) GenerateOption {
	return func(c *GenerateConfig) {
		c.JSON = true
		c.Schema = schema
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) GenerateOption {
	return func(c *GenerateConfig) {
		c.Temperature = &t
	}
}

// NewGenerateConfig applies opts to an empty config.
func NewGenerateConfig(opts ...GenerateOption) *GenerateConfig {
	cfg := &GenerateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// embedInBatches splits texts into groups of size and concatenates the results in order.
func embedInBatches(ctx context.Context, texts []string, size int, embed func(context.Context, []string) ([][]float32, error)) ([][]float32, error) {
	if size <= 0 {
		size = len(texts)
	}
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		batch, err := embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, ErrEmbeddingCount
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
