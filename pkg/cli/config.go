package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/adapter"
	"github.com/mifdirfan/PocketCoach/pkg/catalog"
	"github.com/mifdirfan/PocketCoach/pkg/knowledge"
	"github.com/mifdirfan/PocketCoach/pkg/repository"
	"github.com/mifdirfan/PocketCoach/pkg/server"
	"github.com/mifdirfan/PocketCoach/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	providerGemini = "gemini"
	providerOllama = "ollama"
	providerClaude = "claude"

	storeFile      = "file"
	storeFirestore = "firestore"
	storeMemory    = "memory"
)

// config holds configuration values
type config struct {
	// LLM
	llmProvider          string
	embeddingProvider    string
	geminiProject        string
	geminiLocation       string
	geminiAPIKey         string
	geminiModel          string
	geminiEmbeddingModel string
	anthropicAPIKey      string
	claudeModel          string
	ollamaURL            string
	ollamaModel          string
	ollamaEmbeddingModel string

	// Store
	store             string
	dataDir           string
	firestoreProject  string
	firestoreDatabase string
	firestoreUser     string

	// Knowledge sources
	foodCSV           string
	exerciseFile      string
	pdfDir            string
	bucket            string
	bucketPrefix      string
	bigqueryProject   string
	bigqueryFoodTable string

	// Retrieval
	catalogThreshold   float64
	knowledgeThreshold float64
	topK               int64
	minChunkLength     int64

	// Server
	addr           string
	requestTimeout time.Duration
	allowedOrigins []string
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm",
			Usage:       "Text generation provider (gemini, ollama, claude)",
			Value:       providerGemini,
			Sources:     cli.EnvVars("POCKETCOACH_LLM"),
			Destination: &cfg.llmProvider,
		},
		&cli.StringFlag{
			Name:        "embedding",
			Usage:       "Embedding provider (gemini, ollama)",
			Value:       providerGemini,
			Sources:     cli.EnvVars("POCKETCOACH_EMBEDDING"),
			Destination: &cfg.embeddingProvider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini Developer API key, used instead of Vertex AI when set",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini generative model",
			Sources:     cli.EnvVars("POCKETCOACH_GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "gemini-embedding-model",
			Usage:       "Gemini embedding model",
			Sources:     cli.EnvVars("POCKETCOACH_GEMINI_EMBEDDING_MODEL"),
			Destination: &cfg.geminiEmbeddingModel,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "claude-model",
			Usage:       "Claude model",
			Sources:     cli.EnvVars("POCKETCOACH_CLAUDE_MODEL"),
			Destination: &cfg.claudeModel,
		},
		&cli.StringFlag{
			Name:        "ollama-url",
			Usage:       "Ollama base URL",
			Value:       "http://localhost:11434",
			Sources:     cli.EnvVars("OLLAMA_HOST", "POCKETCOACH_OLLAMA_URL"),
			Destination: &cfg.ollamaURL,
		},
		&cli.StringFlag{
			Name:        "ollama-model",
			Usage:       "Ollama generative model",
			Value:       "llama3",
			Sources:     cli.EnvVars("POCKETCOACH_OLLAMA_MODEL"),
			Destination: &cfg.ollamaModel,
		},
		&cli.StringFlag{
			Name:        "ollama-embedding-model",
			Usage:       "Ollama embedding model",
			Value:       "nomic-embed-text",
			Sources:     cli.EnvVars("POCKETCOACH_OLLAMA_EMBEDDING_MODEL"),
			Destination: &cfg.ollamaEmbeddingModel,
		},
	}
}

// storeFlags returns flags for profile and meal log persistence
func storeFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "store",
			Usage:       "Persistence backend (file, firestore, memory)",
			Value:       storeFile,
			Sources:     cli.EnvVars("POCKETCOACH_STORE"),
			Destination: &cfg.store,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory of user_profile.json and meal_logs.json for the file store",
			Value:       ".",
			Sources:     cli.EnvVars("POCKETCOACH_DATA_DIR"),
			Destination: &cfg.dataDir,
		},
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Google Cloud project ID of the Firestore store",
			Sources:     cli.EnvVars("FIRESTORE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.firestoreDatabase,
		},
		&cli.StringFlag{
			Name:        "firestore-user",
			Usage:       "Document key of the user in Firestore",
			Value:       repository.DefaultUser,
			Sources:     cli.EnvVars("POCKETCOACH_FIRESTORE_USER"),
			Destination: &cfg.firestoreUser,
		},
	}
}

// knowledgeFlags returns flags locating the catalog and knowledge sources
func knowledgeFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "food-csv",
			Usage:       "Food database CSV (path, or object name under the bucket prefix)",
			Value:       "food_db.csv",
			Sources:     cli.EnvVars("POCKETCOACH_FOOD_CSV"),
			Destination: &cfg.foodCSV,
		},
		&cli.StringFlag{
			Name:        "exercise-file",
			Usage:       "Exercise database, JSON or YAML (path, or object name under the bucket prefix)",
			Value:       "exercise_db.json",
			Sources:     cli.EnvVars("POCKETCOACH_EXERCISE_FILE"),
			Destination: &cfg.exerciseFile,
		},
		&cli.StringFlag{
			Name:        "pdf-dir",
			Usage:       "Directory of knowledge PDFs (path, or prefix under the bucket prefix)",
			Value:       "pdfs",
			Sources:     cli.EnvVars("POCKETCOACH_PDF_DIR"),
			Destination: &cfg.pdfDir,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket holding the sources instead of the local filesystem",
			Sources:     cli.EnvVars("POCKETCOACH_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "bucket-prefix",
			Usage:       "Object prefix of the sources in the bucket",
			Sources:     cli.EnvVars("POCKETCOACH_BUCKET_PREFIX"),
			Destination: &cfg.bucketPrefix,
		},
		&cli.StringFlag{
			Name:        "bigquery-project",
			Usage:       "Google Cloud project ID for BigQuery",
			Sources:     cli.EnvVars("BIGQUERY_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.bigqueryProject,
		},
		&cli.StringFlag{
			Name:        "bigquery-food-table",
			Usage:       "BigQuery table (project.dataset.table) to load foods from instead of the CSV",
			Sources:     cli.EnvVars("POCKETCOACH_BIGQUERY_FOOD_TABLE"),
			Destination: &cfg.bigqueryFoodTable,
		},
	}
}

// retrievalFlags returns the tunable retrieval parameters
func retrievalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "catalog-threshold",
			Usage:       "Maximum squared distance for a food or exercise match",
			Value:       catalog.DefaultThreshold,
			Sources:     cli.EnvVars("POCKETCOACH_CATALOG_THRESHOLD"),
			Destination: &cfg.catalogThreshold,
		},
		&cli.FloatFlag{
			Name:        "knowledge-threshold",
			Usage:       "Maximum squared distance for a knowledge chunk",
			Value:       knowledge.DefaultThreshold,
			Sources:     cli.EnvVars("POCKETCOACH_KNOWLEDGE_THRESHOLD"),
			Destination: &cfg.knowledgeThreshold,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of knowledge chunks retrieved per query",
			Value:       knowledge.DefaultTopK,
			Sources:     cli.EnvVars("POCKETCOACH_TOP_K"),
			Destination: &cfg.topK,
		},
		&cli.IntFlag{
			Name:        "min-chunk-length",
			Usage:       "Chunks of this many characters or fewer are discarded",
			Value:       knowledge.DefaultMinChunkLength,
			Sources:     cli.EnvVars("POCKETCOACH_MIN_CHUNK_LENGTH"),
			Destination: &cfg.minChunkLength,
		},
	}
}

// serverFlags returns flags of the HTTP server
func serverFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Aliases:     []string{"a"},
			Usage:       "Listen address",
			Value:       ":5000",
			Sources:     cli.EnvVars("POCKETCOACH_ADDR"),
			Destination: &cfg.addr,
		},
		&cli.DurationFlag{
			Name:        "request-timeout",
			Usage:       "Upper bound of one request, model calls included",
			Value:       server.DefaultRequestTimeout,
			Sources:     cli.EnvVars("POCKETCOACH_REQUEST_TIMEOUT"),
			Destination: &cfg.requestTimeout,
		},
		&cli.StringSliceFlag{
			Name:        "allowed-origin",
			Usage:       "CORS origin allowed to call the API (repeatable, default all)",
			Sources:     cli.EnvVars("POCKETCOACH_ALLOWED_ORIGINS"),
			Destination: &cfg.allowedOrigins,
		},
	}
}

// newGenerator creates the configured text generator
func (cfg *config) newGenerator(ctx context.Context) (adapter.Generator, error) {
	switch cfg.llmProvider {
	case providerGemini:
		return cfg.newGemini(ctx)
	case providerOllama:
		return cfg.newOllama(), nil
	case providerClaude:
		if cfg.anthropicAPIKey == "" {
			return nil, goerr.New("anthropic-api-key is required")
		}
		return adapter.NewClaude(cfg.anthropicAPIKey, adapter.WithClaudeModel(cfg.claudeModel)), nil
	default:
		return nil, goerr.New("unsupported llm provider", goerr.V("llm", cfg.llmProvider))
	}
}

// newEmbedder creates the configured embedding service
func (cfg *config) newEmbedder(ctx context.Context) (adapter.Embedder, error) {
	switch cfg.embeddingProvider {
	case providerGemini:
		return cfg.newGemini(ctx)
	case providerOllama:
		return cfg.newOllama(), nil
	default:
		return nil, goerr.New("unsupported embedding provider", goerr.V("embedding", cfg.embeddingProvider))
	}
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (*adapter.GeminiClient, error) {
	opts := []adapter.GeminiOption{
		adapter.WithGenerativeModel(cfg.geminiModel),
		adapter.WithEmbeddingModel(cfg.geminiEmbeddingModel),
	}
	if cfg.geminiAPIKey != "" {
		return adapter.NewGeminiWithAPIKey(ctx, cfg.geminiAPIKey, opts...)
	}
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project or gemini-api-key is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
}

func (cfg *config) newOllama() *adapter.OllamaClient {
	return adapter.NewOllama(cfg.ollamaURL,
		adapter.WithOllamaGenerativeModel(cfg.ollamaModel),
		adapter.WithOllamaEmbeddingModel(cfg.ollamaEmbeddingModel),
	)
}

// newRepository creates the configured store. The returned func releases it.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, func(), error) {
	switch cfg.store {
	case storeFile:
		repo, err := repository.NewFile(cfg.dataDir)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	case storeMemory:
		return repository.NewMemory(), func() {}, nil
	case storeFirestore:
		if cfg.firestoreProject == "" {
			return nil, nil, goerr.New("firestore-project is required")
		}
		repo, err := repository.NewFirestore(ctx, cfg.firestoreProject, cfg.firestoreDatabase, cfg.firestoreUser)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				logging.From(ctx).Warn("failed to close firestore client", "error", err)
			}
		}, nil
	default:
		return nil, nil, goerr.New("unsupported store", goerr.V("store", cfg.store))
	}
}

// newStorage creates a new Storage adapter instance, nil when no bucket is configured
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// newCatalog loads the food and exercise databases and embeds them.
func (cfg *config) newCatalog(ctx context.Context, embedder adapter.Embedder, storage adapter.Storage) (*catalog.Catalog, error) {
	var opener catalog.Opener = catalog.LocalOpener{}
	if storage != nil {
		opener = catalog.NewBucketOpener(storage, cfg.bucketPrefix)
	}

	var foods catalog.FoodSource = catalog.NewCSVFoods(opener, cfg.foodCSV)
	if cfg.bigqueryFoodTable != "" {
		if cfg.bigqueryProject == "" {
			return nil, goerr.New("bigquery-project is required with bigquery-food-table")
		}
		bq, err := adapter.NewBigQuery(ctx, cfg.bigqueryProject)
		if err != nil {
			return nil, err
		}
		foods, err = catalog.NewBigQueryFoods(bq, cfg.bigqueryFoodTable)
		if err != nil {
			return nil, err
		}
	}
	exercises := catalog.NewFileExercises(opener, cfg.exerciseFile)

	c, err := catalog.Build(ctx, embedder, foods, exercises, catalog.WithThreshold(cfg.catalogThreshold))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build food and exercise catalog")
	}
	return c, nil
}

// newKnowledge indexes the knowledge PDFs. Missing documents leave the base empty.
func (cfg *config) newKnowledge(ctx context.Context, embedder adapter.Embedder, storage adapter.Storage) (*knowledge.Base, error) {
	opts := []knowledge.Option{
		knowledge.WithThreshold(cfg.knowledgeThreshold),
		knowledge.WithTopK(int(cfg.topK)),
		knowledge.WithMinChunkLength(int(cfg.minChunkLength)),
	}

	var source knowledge.DocumentSource
	switch {
	case storage != nil:
		source = knowledge.NewBucketSource(storage, path.Join(cfg.bucketPrefix, cfg.pdfDir))
	case cfg.pdfDir != "":
		source = knowledge.NewDirSource(cfg.pdfDir)
	default:
		return knowledge.Empty(opts...), nil
	}

	base, err := knowledge.Build(ctx, embedder, source, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build knowledge base")
	}
	return base, nil
}

// loadDotEnv sets variables from the env files that exist. Variables already set win.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return goerr.Wrap(err, "failed to load env file", goerr.V("path", f))
		}
	}
	return nil
}
