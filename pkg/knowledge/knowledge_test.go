package knowledge_test

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mifdirfan/PocketCoach/pkg/knowledge"
	"github.com/mifdirfan/PocketCoach/pkg/testtools"
)

func newEmbedder() *testtools.KeywordEmbedder {
	return testtools.NewKeywordEmbedder("protein", "overload", "sleep")
}

func buildBase(t *testing.T, opts ...knowledge.Option) *knowledge.Base {
	t.Helper()
	opts = append([]knowledge.Option{knowledge.WithMinChunkLength(20)}, opts...)
	base, err := knowledge.Build(context.Background(), newEmbedder(), knowledge.NewDirSource("testdata"), opts...)
	gt.NoError(t, err)
	return base
}

func TestBuildSkipsBrokenDocuments(t *testing.T) {
	base := buildBase(t)
	gt.V(t, base.Len()).Equal(2)

	report := base.Report()
	gt.V(t, report.Documents).Equal(1)
	gt.V(t, report.Chunks).Equal(2)
	gt.A(t, report.Failures).Length(1)
	gt.V(t, report.Failures[0].Source).Equal("broken.pdf")
}

func TestRetrieveContext(t *testing.T) {
	base := buildBase(t)
	ctx := context.Background()

	t.Run("single relevant chunk", func(t *testing.T) {
		text, err := base.RetrieveContext(ctx, "How much protein should I eat?")
		gt.NoError(t, err)
		gt.V(t, text).Equal("[Source: guide.pdf]\nProtein intake of 1.6 to 2.2 grams per kilogram supports muscle growth during a calorie surplus.")
	})

	t.Run("several chunks joined in distance order", func(t *testing.T) {
		text, err := base.RetrieveContext(ctx, "protein and overload")
		gt.NoError(t, err)
		parts := strings.Split(text, "\n\n---\n\n")
		gt.A(t, parts).Length(2)
		gt.S(t, parts[0]).Contains("Protein intake")
		gt.S(t, parts[1]).Contains("Progressive overload")
	})

	t.Run("nothing under threshold", func(t *testing.T) {
		text, err := base.RetrieveContext(ctx, "sleep")
		gt.NoError(t, err)
		gt.V(t, text).Equal(knowledge.NotRelevantMessage)
	})

	t.Run("top k limits results", func(t *testing.T) {
		limited := buildBase(t, knowledge.WithTopK(1))
		text, err := limited.RetrieveContext(ctx, "protein and overload")
		gt.NoError(t, err)
		gt.S(t, text).NotContains("---")
	})

	t.Run("threshold is configurable", func(t *testing.T) {
		loose := buildBase(t, knowledge.WithThreshold(3))
		text, err := loose.RetrieveContext(ctx, "sleep")
		gt.NoError(t, err)
		gt.S(t, text).Contains("[Source: guide.pdf]")
	})
}

func TestEmptyBase(t *testing.T) {
	ctx := context.Background()

	t.Run("default chunk length drops short paragraphs", func(t *testing.T) {
		embedder := newEmbedder()
		base, err := knowledge.Build(ctx, embedder, knowledge.NewDirSource("testdata"))
		gt.NoError(t, err)
		gt.V(t, base.Len()).Equal(0)
		gt.V(t, embedder.Calls()).Equal(0)

		text, err := base.RetrieveContext(ctx, "protein")
		gt.NoError(t, err)
		gt.V(t, text).Equal(knowledge.NotLoadedMessage)
	})

	t.Run("missing directory", func(t *testing.T) {
		base, err := knowledge.Build(ctx, newEmbedder(), knowledge.NewDirSource("testdata/missing"))
		gt.NoError(t, err)
		gt.V(t, base.Len()).Equal(0)
		gt.A(t, base.Report().Failures).Length(1)
	})

	t.Run("explicitly empty", func(t *testing.T) {
		text, err := knowledge.Empty().RetrieveContext(ctx, "anything")
		gt.NoError(t, err)
		gt.V(t, text).Equal(knowledge.NotLoadedMessage)

		hits, err := knowledge.Empty().Search(ctx, "anything", 3)
		gt.NoError(t, err)
		gt.A(t, hits).Length(0)
	})
}

func TestBuildEmbeddingFailure(t *testing.T) {
	embedder := newEmbedder()
	embedder.Fail(errors.New("service unavailable"))

	_, err := knowledge.Build(context.Background(), embedder, knowledge.NewDirSource("testdata"), knowledge.WithMinChunkLength(20))
	gt.Error(t, err)
}

type mockStorage struct {
	objects map[string][]byte
}

func (m *mockStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func TestBucketSource(t *testing.T) {
	guide, err := os.ReadFile("testdata/guide.pdf")
	gt.NoError(t, err)

	storage := &mockStorage{objects: map[string][]byte{
		"knowledge/guide.pdf":    guide,
		"knowledge/README.md":    []byte("readme"),
		"knowledge/old/copy.pdf": guide,
		"knowledgebase/x.pdf":    guide,
	}}
	source := knowledge.NewBucketSource(storage, "knowledge")

	names, err := source.List(context.Background())
	gt.NoError(t, err)
	gt.V(t, names).Equal([]string{"guide.pdf"})

	base, err := knowledge.Build(context.Background(), newEmbedder(), source, knowledge.WithMinChunkLength(20))
	gt.NoError(t, err)
	gt.V(t, base.Len()).Equal(2)

	hits, err := base.Search(context.Background(), "overload", 1)
	gt.NoError(t, err)
	gt.A(t, hits).Length(1)
	gt.V(t, hits[0].Chunk.Source).Equal("guide.pdf")
	gt.V(t, hits[0].Distance).Equal(0.0)
}
