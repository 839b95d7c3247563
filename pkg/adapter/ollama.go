package adapter

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/m-mizutani/goerr/v2"
)

// OllamaClient talks to a local Ollama runtime for generation and embeddings.
type OllamaClient struct {
	client          *resty.Client
	generativeModel string
	embeddingModel  string
}

type OllamaOption func(*OllamaClient)

func WithOllamaGenerativeModel(model string) OllamaOption {
	return func(o *OllamaClient) {
		if model != "" {
			o.generativeModel = model
		}
	}
}

func WithOllamaEmbeddingModel(model string) OllamaOption {
	return func(o *OllamaClient) {
		if model != "" {
			o.embeddingModel = model
		}
	}
}

// WithOllamaHTTPClient replaces the transport, mainly for tests.
func WithOllamaHTTPClient(hc *http.Client) OllamaOption {
	return func(o *OllamaClient) {
		o.client = resty.NewWithClient(hc).
			SetBaseURL(o.client.BaseURL).
			SetHeader("Content-Type", "application/json").
			ForceContentType("application/json")
	}
}

// NewOllama creates a client for baseURL, falling back to http://localhost:11434.
func NewOllama(baseURL string, opts ...OllamaOption) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	o := &OllamaClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(5 * time.Minute).
			ForceContentType("application/json"),
		generativeModel: "llama3",
		embeddingModel:  "nomic-embed-text",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

type ollamaError struct {
	Error string `json:"error"`
}

func (o *OllamaClient) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	cfg := NewGenerateConfig(opts...)

	req := ollamaGenerateRequest{Model: o.generativeModel, Prompt: prompt}
	if cfg.JSON {
		req.Format = "json"
	}
	if cfg.Temperature != nil {
		req.Options = map[string]any{"temperature": *cfg.Temperature}
	}

	var out ollamaGenerateResponse
	var failure ollamaError
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(&req).
		SetResult(&out).
		SetError(&failure).
		Post("/api/generate")
	if err != nil {
		return "", goerr.Wrap(err, "ollama generate request failed", goerr.V("model", o.generativeModel))
	}
	if resp.StatusCode() != http.StatusOK {
		return "", goerr.New("ollama generate returned error",
			goerr.V("status", resp.StatusCode()), goerr.V("error", failure.Error), goerr.V("model", o.generativeModel))
	}
	if out.Response == "" {
		return "", goerr.Wrap(ErrEmptyResponse, "ollama returned empty response", goerr.V("model", o.generativeModel))
	}
	return out.Response, nil
}

func (o *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (o *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedInBatches(ctx, texts, 64, o.embed)
}

func (o *OllamaClient) embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out ollamaEmbedResponse
	var failure ollamaError
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(&ollamaEmbedRequest{Model: o.embeddingModel, Input: texts}).
		SetResult(&out).
		SetError(&failure).
		Post("/api/embed")
	if err != nil {
		return nil, goerr.Wrap(err, "ollama embed request failed", goerr.V("model", o.embeddingModel))
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, goerr.New("ollama embed returned error",
			goerr.V("status", resp.StatusCode()), goerr.V("error", failure.Error), goerr.V("model", o.embeddingModel))
	}
	if len(out.Embeddings) != len(texts) {
		return nil, goerr.Wrap(ErrEmbeddingCount, "unexpected ollama embedding count",
			goerr.V("expected", len(texts)), goerr.V("actual", len(out.Embeddings)))
	}

	vectors := make([][]float32, len(out.Embeddings))
	for i, e := range out.Embeddings {
		vec := make([]float32, len(e))
		for j, v := range e {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
