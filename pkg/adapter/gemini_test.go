package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mifdirfan/PocketCoach/pkg/adapter"
)

func newTestGemini(t *testing.T) *adapter.GeminiClient {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	client, err := adapter.NewGemini(context.Background(), projectID, "us-central1")
	gt.NoError(t, err)
	return client
}

func TestGeminiGenerate(t *testing.T) {
	client := newTestGemini(t)

	resp, err := client.Generate(context.Background(), "Hello, what is the capital of France?")
	gt.NoError(t, err)
	gt.S(t, resp).Contains("Paris")
}

func TestGeminiGenerateJSON(t *testing.T) {
	client := newTestGemini(t)

	resp, err := client.Generate(context.Background(),
		`Extract the food name and weight in grams from: "chicken breast 200g". Respond as {"food": "...", "weight": <number>}`,
		adapter.WithJSON(), adapter.WithTemperature(0))
	gt.NoError(t, err)
	gt.S(t, resp).Contains("200")
}

func TestGeminiEmbedBatch(t *testing.T) {
	client := newTestGemini(t)
	ctx := context.Background()

	texts := []string{"chicken breast", "bench press (Targets: Chest)", "brown rice"}
	vectors, err := client.EmbedBatch(ctx, texts)
	gt.NoError(t, err)
	gt.A(t, vectors).Length(len(texts))

	single, err := client.Embed(ctx, texts[0])
	gt.NoError(t, err)
	gt.A(t, single).Length(len(vectors[0]))
}
