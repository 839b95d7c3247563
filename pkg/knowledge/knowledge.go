// Package knowledge is the unstructured retrieval index over PDF text chunks.
package knowledge

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/adapter"
	"github.com/mifdirfan/PocketCoach/pkg/model"
	"github.com/mifdirfan/PocketCoach/pkg/utils/logging"
	"github.com/mifdirfan/PocketCoach/pkg/vector"
)

const (
	DefaultThreshold = 1.2
	DefaultTopK      = 3

	NotLoadedMessage   = "The knowledge base is not loaded, so no reference material is available."
	NotRelevantMessage = "No reference material in the knowledge base is close enough to this question to be considered relevant."

	chunkSeparator = "\n\n---\n\n"
)

// DocumentFailure records a document that could not be read or parsed.
type DocumentFailure struct {
	Source string
	Err    error
}

// BuildReport summarizes a Build.
type BuildReport struct {
	Documents int
	Chunks    int
	Failures  []DocumentFailure
}

// Base holds chunks and their vectors in lockstep. An empty Base is valid and answers every
// query with NotLoadedMessage.
type Base struct {
	embedder       adapter.Embedder
	chunks         []model.KnowledgeChunk
	index          *vector.Index
	threshold      float64
	topK           int
	minChunkLength int
	report         BuildReport
}

type Option func(*Base)

// WithThreshold overrides DefaultThreshold. Non-positive values are ignored.
func WithThreshold(threshold float64) Option {
	return func(b *Base) {
		if threshold > 0 {
			b.threshold = threshold
		}
	}
}

// WithTopK overrides DefaultTopK. Non-positive values are ignored.
func WithTopK(k int) Option {
	return func(b *Base) {
		if k > 0 {
			b.topK = k
		}
	}
}

// WithMinChunkLength overrides DefaultMinChunkLength. Negative values are ignored.
func WithMinChunkLength(n int) Option {
	return func(b *Base) {
		if n >= 0 {
			b.minChunkLength = n
		}
	}
}

func newBase(embedder adapter.Embedder, opts ...Option) *Base {
	b := &Base{
		embedder:       embedder,
		threshold:      DefaultThreshold,
		topK:           DefaultTopK,
		minChunkLength: DefaultMinChunkLength,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Empty returns a base without documents.
func Empty(opts ...Option) *Base {
	return newBase(nil, opts...)
}

// Build extracts, chunks and embeds every PDF of source. Unreadable documents are recorded in
// the report and skipped; only a failure to embed the kept chunks is returned as an error.
func Build(ctx context.Context, embedder adapter.Embedder, source DocumentSource, opts ...Option) (*Base, error) {
	b := newBase(embedder, opts...)
	logger := logging.From(ctx)

	names, err := source.List(ctx)
	if err != nil {
		b.report.Failures = append(b.report.Failures, DocumentFailure{Err: err})
		logger.Warn("knowledge documents unavailable, continuing without knowledge base", "error", err)
		return b, nil
	}

	for _, name := range names {
		chunks, err := b.load(ctx, source, name)
		if err != nil {
			b.report.Failures = append(b.report.Failures, DocumentFailure{Source: name, Err: err})
			logger.Warn("skipping unreadable document", "source", name, "error", err)
			continue
		}
		b.report.Documents++
		b.chunks = append(b.chunks, chunks...)
	}
	b.report.Chunks = len(b.chunks)

	if len(b.chunks) == 0 {
		logger.Warn("knowledge base is empty", "documents", len(names), "failures", len(b.report.Failures))
		return b, nil
	}

	texts := make([]string, len(b.chunks))
	for i, c := range b.chunks {
		texts[i] = c.Text
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed knowledge chunks", goerr.V("count", len(texts)))
	}
	if len(vectors) != len(texts) {
		return nil, goerr.Wrap(adapter.ErrEmbeddingCount, "knowledge embedding count mismatch",
			goerr.V("expected", len(texts)), goerr.V("actual", len(vectors)))
	}
	if b.index, err = vector.New(vectors); err != nil {
		return nil, goerr.Wrap(err, "failed to build knowledge index")
	}

	logger.Info("knowledge base ready",
		"documents", b.report.Documents,
		"chunks", len(b.chunks),
		"failures", len(b.report.Failures),
		"threshold", b.threshold,
	)
	return b, nil
}

func (b *Base) load(ctx context.Context, source DocumentSource, name string) ([]model.KnowledgeChunk, error) {
	r, err := source.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	pages, err := ReadPDF(r)
	if err != nil {
		return nil, err
	}

	var chunks []model.KnowledgeChunk
	for _, page := range pages {
		for _, text := range SplitChunks(page, b.minChunkLength) {
			chunks = append(chunks, model.KnowledgeChunk{Text: text, Source: name})
		}
	}
	return chunks, nil
}

// Len returns the number of chunks.
func (b *Base) Len() int { return len(b.chunks) }

// Report returns what Build read and skipped.
func (b *Base) Report() BuildReport { return b.report }

// Hit is a retrieved chunk with its distance.
type Hit struct {
	Chunk    model.KnowledgeChunk
	Distance float64
}

// Search returns the k nearest chunks regardless of threshold.
func (b *Base) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if b.Len() == 0 {
		return nil, nil
	}

	vec, err := b.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query", goerr.V("query", query))
	}
	neighbors, err := b.index.Search(vec, k)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search knowledge base", goerr.V("query", query))
	}

	hits := make([]Hit, len(neighbors))
	for i, n := range neighbors {
		hits[i] = Hit{Chunk: b.chunks[n.Position], Distance: n.Distance}
	}
	return hits, nil
}

// RetrieveContext returns the nearest chunks within the threshold as attributed text, or one
// of the fixed fallback messages.
func (b *Base) RetrieveContext(ctx context.Context, query string) (string, error) {
	if b.Len() == 0 {
		return NotLoadedMessage, nil
	}

	hits, err := b.Search(ctx, query, b.topK)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, h := range hits {
		if h.Distance >= b.threshold {
			continue
		}
		parts = append(parts, "[Source: "+h.Chunk.Source+"]\n"+h.Chunk.Text)
	}
	if len(parts) == 0 {
		logging.From(ctx).Debug("no relevant knowledge", "query", query)
		return NotRelevantMessage, nil
	}
	return strings.Join(parts, chunkSeparator), nil
}
