package cli

import (
	"context"

	"github.com/mifdirfan/PocketCoach/pkg/model"
	"github.com/mifdirfan/PocketCoach/pkg/repository"
	"github.com/mifdirfan/PocketCoach/pkg/usecase/coach"
)

// LocalSourcesForTest describes a setup running fully on Ollama with local files.
type LocalSourcesForTest struct {
	OllamaURL      string
	Store          string
	DataDir        string
	FoodCSV        string
	ExerciseFile   string
	PDFDir         string
	MinChunkLength int64
}

func (s LocalSourcesForTest) config() *config {
	return &config{
		llmProvider:        providerOllama,
		embeddingProvider:  providerOllama,
		ollamaURL:          s.OllamaURL,
		ollamaModel:        "llama3",
		store:              s.Store,
		dataDir:            s.DataDir,
		foodCSV:            s.FoodCSV,
		exerciseFile:       s.ExerciseFile,
		pdfDir:             s.PDFDir,
		catalogThreshold:   1.0,
		knowledgeThreshold: 1.2,
		topK:               3,
		minChunkLength:     s.MinChunkLength,
	}
}

func NewCoachForTest(ctx context.Context, s LocalSourcesForTest) (*coach.Coach, func(), error) {
	return s.config().newCoach(ctx)
}

func NewRepositoryForTest(ctx context.Context, s LocalSourcesForTest) (repository.Repository, error) {
	repo, _, err := s.config().newRepository(ctx)
	return repo, err
}

func KnowledgeLenForTest(ctx context.Context, s LocalSourcesForTest) (int, int, error) {
	ix, err := s.config().newIndexes(ctx)
	if err != nil {
		return 0, 0, err
	}
	return ix.catalog.Len(), ix.knowledge.Len(), nil
}

func ReadProfileForTest(path string) (*model.UserProfile, error) {
	return readProfile(path)
}

func LoadDotEnvForTest(files ...string) error {
	return loadDotEnv(files...)
}
