package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	maxRetries    = 5
	baseBackoff   = 500 * time.Millisecond
	maxBackoff    = 30 * time.Second
	openaiDim3072 = 1536 // text-embedding-3-small native dimension
)

// OpenAIEmbedder calls the OpenAI embeddings API, with an
// exponential-backoff retry policy on 429/5xx and network errors.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder builds an embedder bound to apiKey. Construction never
// fails; Initialize performs the actual readiness check so callers can
// degrade to NoopEmbedder uniformly on any failure.
func NewOpenAIEmbedder(apiKey string) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  openai.SmallEmbedding3,
	}
}

func (e *OpenAIEmbedder) Initialize(ctx context.Context) error {
	// Idempotent: the OpenAI client carries no connection state to set up.
	// A cheap no-op call would cost a real embedding request, so
	// readiness is instead verified lazily on first Embed — matching the
	// contract's "initialize() may be called multiple times idempotently"
	// without spending API budget up front.
	if e.client == nil {
		return errors.New("embed: openai client not configured")
	}
	return nil
}

func (e *OpenAIEmbedder) Dimension() int { return openaiDim3072 }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed: openai returned no vectors")
	}
	return vectors[0], nil
}

// EmbedBatch embeds multiple texts in one API call, used by the Graph
// Builder to send all of a build's cache misses in one call.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embedBatch(ctx, texts)
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp openai.EmbeddingResponse
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err = e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: e.model,
		})
		if err == nil {
			break
		}
		if !isRetryable(err) {
			return nil, fmt.Errorf("embed: embedding API: %w", err)
		}

		backoff := calcBackoff(attempt)
		slog.Warn("embed: retrying", "attempt", attempt+1, "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("embed: embedding API after %d retries: %w", maxRetries, err)
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vectors[d.Index] = Normalize(d.Embedding)
	}
	return vectors, nil
}

func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

func calcBackoff(attempt int) time.Duration {
	backoff := baseBackoff * time.Duration(uint(1)<<uint(attempt))
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	jitter := time.Duration(float64(backoff) * (0.75 + rand.Float64()*0.5))
	return jitter
}
