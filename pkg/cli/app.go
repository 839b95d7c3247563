package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/adapter"
	"github.com/mifdirfan/PocketCoach/pkg/catalog"
	"github.com/mifdirfan/PocketCoach/pkg/knowledge"
	"github.com/mifdirfan/PocketCoach/pkg/usecase/coach"
	"github.com/mifdirfan/PocketCoach/pkg/usecase/plan"
)

// indexes are the embedding client and both retrieval indexes, built once per process.
type indexes struct {
	embedder  adapter.Embedder
	catalog   *catalog.Catalog
	knowledge *knowledge.Base
}

// newIndexes fails when the catalog cannot be built. An empty knowledge base is accepted.
func (cfg *config) newIndexes(ctx context.Context) (*indexes, error) {
	embedder, err := cfg.newEmbedder(ctx)
	if err != nil {
		return nil, err
	}
	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, err
	}

	c, err := cfg.newCatalog(ctx, embedder, storage)
	if err != nil {
		return nil, err
	}
	kb, err := cfg.newKnowledge(ctx, embedder, storage)
	if err != nil {
		return nil, err
	}

	return &indexes{
		embedder:  embedder,
		catalog:   c,
		knowledge: kb,
	}, nil
}

func newPlanner(llm adapter.Generator, ix *indexes) (*plan.Generator, error) {
	planner, err := plan.New(llm, ix.knowledge, ix.catalog)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create plan generator")
	}
	return planner, nil
}

// newCoach wires the coach over the configured store. The returned func releases the store.
func (cfg *config) newCoach(ctx context.Context) (*coach.Coach, func(), error) {
	llm, err := cfg.newGenerator(ctx)
	if err != nil {
		return nil, nil, err
	}
	ix, err := cfg.newIndexes(ctx)
	if err != nil {
		return nil, nil, err
	}
	planner, err := newPlanner(llm, ix)
	if err != nil {
		return nil, nil, err
	}
	repo, closeRepo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	return coach.New(coach.NewInput{
		Repo:      repo,
		LLM:       llm,
		Planner:   planner,
		Foods:     ix.catalog,
		Knowledge: ix.knowledge,
	}), closeRepo, nil
}
