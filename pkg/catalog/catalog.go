// Package catalog is the structured retrieval index: food and exercise records embedded into a
// single nearest-neighbour index and looked up by name.
package catalog

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/adapter"
	"github.com/mifdirfan/PocketCoach/pkg/model"
	"github.com/mifdirfan/PocketCoach/pkg/utils/logging"
	"github.com/mifdirfan/PocketCoach/pkg/vector"
)

// DefaultThreshold is the squared distance below which a nearest record counts as a match.
const DefaultThreshold = 1.0

var ErrEmptyCatalog = goerr.New("catalog has no records")

// Catalog holds records and their vectors in lockstep: the vector at position i was embedded
// from records[i]. It is read-only after Build.
type Catalog struct {
	embedder  adapter.Embedder
	records   []model.Record
	index     *vector.Index
	threshold float64
}

type Option func(*Catalog)

// WithThreshold overrides DefaultThreshold. Non-positive values are ignored.
func WithThreshold(threshold float64) Option {
	return func(c *Catalog) {
		if threshold > 0 {
			c.threshold = threshold
		}
	}
}

// FoodMatch is a resolved food. Its macros refer to ReferenceGrams, not necessarily 100 g.
type FoodMatch struct {
	model.Food
	Distance float64
}

// Scale returns the macros for grams of the food, rounded to 2 decimals.
func (m *FoodMatch) Scale(grams float64) model.Macros {
	return m.Food.MacrosFor(grams)
}

// Hit is a raw search result.
type Hit struct {
	Record   model.Record
	Distance float64
}

// Build loads all foods then all exercises and embeds them. A nil source contributes nothing;
// a failing source aborts the build.
func Build(ctx context.Context, embedder adapter.Embedder, foods FoodSource, exercises ExerciseSource, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		embedder:  embedder,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}

	var foodCount, exerciseCount int
	if foods != nil {
		loaded, err := foods.LoadFoods(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load foods")
		}
		for _, f := range loaded {
			c.records = append(c.records, f)
		}
		foodCount = len(loaded)
	}
	if exercises != nil {
		loaded, err := exercises.LoadExercises(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load exercises")
		}
		for _, ex := range loaded {
			c.records = append(c.records, ex)
		}
		exerciseCount = len(loaded)
	}

	if len(c.records) == 0 {
		return nil, ErrEmptyCatalog
	}

	texts := make([]string, len(c.records))
	for i, r := range c.records {
		texts[i] = r.EmbeddingText()
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed catalog records", goerr.V("count", len(texts)))
	}
	if len(vectors) != len(texts) {
		return nil, goerr.Wrap(adapter.ErrEmbeddingCount, "catalog embedding count mismatch",
			goerr.V("expected", len(texts)), goerr.V("actual", len(vectors)))
	}

	c.index, err = vector.New(vectors)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build catalog index")
	}

	logging.From(ctx).Info("catalog ready",
		"foods", foodCount,
		"exercises", exerciseCount,
		"dim", c.index.Dim(),
		"threshold", c.threshold,
	)
	return c, nil
}

// Len returns the number of records.
func (c *Catalog) Len() int { return len(c.records) }

// Threshold returns the match threshold in use.
func (c *Catalog) Threshold() float64 { return c.threshold }

// Exercises returns every exercise record in index order.
func (c *Catalog) Exercises() []*model.Exercise {
	var out []*model.Exercise
	for _, r := range c.records {
		if ex, ok := r.(*model.Exercise); ok {
			out = append(out, ex)
		}
	}
	return out
}

// Search returns the k records nearest to query regardless of kind or threshold.
func (c *Catalog) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	vec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query", goerr.V("query", query))
	}
	neighbors, err := c.index.Search(vec, k)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search catalog", goerr.V("query", query))
	}

	hits := make([]Hit, len(neighbors))
	for i, n := range neighbors {
		hits[i] = Hit{Record: c.records[n.Position], Distance: n.Distance}
	}
	return hits, nil
}

// nearest returns the single closest record when it is within the threshold.
func (c *Catalog) nearest(ctx context.Context, name string) (*Hit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	hits, err := c.Search(ctx, name, 1)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 || hits[0].Distance >= c.threshold {
		if len(hits) > 0 {
			logging.From(ctx).Debug("catalog miss", "query", name, "distance", hits[0].Distance)
		}
		return nil, nil
	}
	return &hits[0], nil
}

// FindFood resolves a food name. It reports false when the nearest record is not a food or is
// not within the threshold.
func (c *Catalog) FindFood(ctx context.Context, name string) (*FoodMatch, bool, error) {
	hit, err := c.nearest(ctx, name)
	if err != nil || hit == nil {
		return nil, false, err
	}

	switch r := hit.Record.(type) {
	case *model.Food:
		return &FoodMatch{Food: *r, Distance: hit.Distance}, true, nil
	case *model.Exercise:
		logging.From(ctx).Debug("nearest record is an exercise", "query", name, "record", r.Name)
		return nil, false, nil
	default:
		return nil, false, goerr.New("unknown record type", goerr.V("kind", r.Kind()))
	}
}

// FindExercise resolves an exercise name with the same rules as FindFood.
func (c *Catalog) FindExercise(ctx context.Context, name string) (*model.Exercise, bool, error) {
	hit, err := c.nearest(ctx, name)
	if err != nil || hit == nil {
		return nil, false, err
	}

	switch r := hit.Record.(type) {
	case *model.Exercise:
		ex := *r
		return &ex, true, nil
	case *model.Food:
		logging.From(ctx).Debug("nearest record is a food", "query", name, "record", r.Name)
		return nil, false, nil
	default:
		return nil, false, goerr.New("unknown record type", goerr.V("kind", r.Kind()))
	}
}
