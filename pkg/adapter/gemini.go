package adapter

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

var (
	ErrEmptyResponse  = goerr.New("empty response from model")
	ErrEmbeddingCount = goerr.New("embedding count does not match input")
)

// GeminiClient serves both generation and embeddings through the genai SDK.
type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
	dimensions      int32
	batchSize       int
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		if model != "" {
			g.generativeModel = model
		}
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		if model != "" {
			g.embeddingModel = model
		}
	}
}

// WithEmbeddingDimensions truncates embeddings to n dimensions. Zero keeps the model default.
func WithEmbeddingDimensions(n int) GeminiOption {
	return func(g *GeminiClient) {
		g.dimensions = int32(n)
	}
}

// WithEmbeddingBatchSize caps the number of texts per EmbedContent call.
func WithEmbeddingBatchSize(n int) GeminiOption {
	return func(g *GeminiClient) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// NewGemini connects to Vertex AI with project and location.
func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client", goerr.V("project", projectID))
	}
	// Vertex AI accepts a single instance per embedding request for gemini-embedding-001.
	return newGemini(client, append([]GeminiOption{WithEmbeddingBatchSize(1)}, opts...)...), nil
}

// NewGeminiWithAPIKey connects to the Gemini Developer API.
func NewGeminiWithAPIKey(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}
	return newGemini(client, opts...), nil
}

func newGemini(client *genai.Client, opts ...GeminiOption) *GeminiClient {
	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
		embeddingModel:  "gemini-embedding-001",
		batchSize:       100,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	cfg := NewGenerateConfig(opts...)

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		Temperature: cfg.Temperature,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}
	if cfg.JSON {
		config.ResponseMIMEType = "application/json"
	}
	if cfg.Schema != nil {
		schema, err := GenaiSchema(cfg.Schema)
		if err != nil {
			return "", goerr.Wrap(err, "failed to convert response schema")
		}
		config.ResponseSchema = schema
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content", goerr.V("model", g.generativeModel))
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", goerr.Wrap(ErrEmptyResponse, "no candidates", goerr.V("model", g.generativeModel))
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return "", goerr.Wrap(ErrEmptyResponse, "no text parts", goerr.V("model", g.generativeModel))
	}
	return text.String(), nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (g *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedInBatches(ctx, texts, g.batchSize, g.embed)
}

func (g *GeminiClient) embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	config := &genai.EmbedContentConfig{}
	if g.dimensions > 0 {
		config.OutputDimensionality = &g.dimensions
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content", goerr.V("model", g.embeddingModel), goerr.V("count", len(texts)))
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, goerr.Wrap(ErrEmbeddingCount, "unexpected embedding response", goerr.V("count", len(texts)))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, goerr.Wrap(ErrEmbeddingCount, "empty embedding", goerr.V("position", i))
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}
