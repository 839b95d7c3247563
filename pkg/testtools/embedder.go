// Package testtools provides deterministic stand-ins for the model services used in tests.
package testtools

import (
	"context"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// KeywordEmbedder maps text to a bag-of-keywords vector: component i is the number of times
// keyword i occurs in the lower-cased text. Identical texts embed identically and texts sharing
// no keyword land at squared distance >= 1 from every single-keyword record.
type KeywordEmbedder struct {
	keywords []string

	mu    sync.Mutex
	calls int
	fail  error
}

func NewKeywordEmbedder(keywords ...string) *KeywordEmbedder {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &KeywordEmbedder{keywords: lowered}
}

// Fail makes every following call return err.
func (e *KeywordEmbedder) Fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail = err
}

// Calls returns how many Embed/EmbedBatch calls were made.
func (e *KeywordEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *KeywordEmbedder) Vector(text string) []float32 {
	text = strings.ToLower(text)
	vec := make([]float32, len(e.keywords))
	for i, k := range e.keywords {
		vec[i] = float32(strings.Count(text, k))
	}
	return vec
}

func (e *KeywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.record(); err != nil {
		return nil, err
	}
	return e.Vector(text), nil
}

func (e *KeywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.record(); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = e.Vector(t)
	}
	return vectors, nil
}

func (e *KeywordEmbedder) record() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.fail != nil {
		return goerr.Wrap(e.fail, "embedding failed")
	}
	return nil
}
