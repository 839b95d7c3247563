package testtools

import (
	"context"
	"sync"

	"github.com/mifdirfan/PocketCoach/pkg/adapter"
)

// Generator is a scripted text generator. GenerateFunc decides the response; every prompt and
// its resolved options are recorded.
type Generator struct {
	GenerateFunc func(ctx context.Context, prompt string, cfg *adapter.GenerateConfig) (string, error)

	mu      sync.Mutex
	prompts []string
	configs []*adapter.GenerateConfig
}

// NewStaticGenerator always responds with text.
func NewStaticGenerator(text string) *Generator {
	return &Generator{
		GenerateFunc: func(ctx context.Context, prompt string, cfg *adapter.GenerateConfig) (string, error) {
			return text, nil
		},
	}
}

func (g *Generator) Generate(ctx context.Context, prompt string, opts ...adapter.GenerateOption) (string, error) {
	cfg := adapter.NewGenerateConfig(opts...)

	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.configs = append(g.configs, cfg)
	g.mu.Unlock()

	if g.GenerateFunc == nil {
		return "", nil
	}
	return g.GenerateFunc(ctx, prompt, cfg)
}

// Prompts returns the prompts received so far.
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// Configs returns the generation options received so far.
func (g *Generator) Configs() []*adapter.GenerateConfig {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*adapter.GenerateConfig(nil), g.configs...)
}
