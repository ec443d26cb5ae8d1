package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"documind/internal/contextutil"
)

// EmbeddingsConfig configures the embeddings client.
type EmbeddingsConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	BatchSize  int
	BatchDelay time.Duration
	Timeout    time.Duration
	MaxRetries int
}

// EmbeddingsClient embeds text through an OpenAI-compatible embeddings API.
// Every vector it returns has exactly Dimensions components.
type EmbeddingsClient struct {
	api        openai.Client
	Model      string
	Dimensions int
	batchSize  int
	batchDelay time.Duration
	timeout    time.Duration
}

// NewEmbeddingsClient creates a new embeddings client.
func NewEmbeddingsClient(cfg EmbeddingsConfig) *EmbeddingsClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &EmbeddingsClient{
		api:        openai.NewClient(opts...),
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		batchSize:  batchSize,
		batchDelay: cfg.BatchDelay,
		timeout:    timeout,
	}
}

// Embed returns the embedding of a single text.
func (c *EmbeddingsClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in provider-sized batches, pausing between batches.
// The result is aligned 1:1 with texts. Any failure fails the whole call.
func (c *EmbeddingsClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no input texts", ErrEmbeddingFailed)
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		if start > 0 && c.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.batchDelay):
			}
		}

		end := min(start+c.batchSize, len(texts))
		vecs, err := c.embedOnce(ctx, texts[start:end])
		if err != nil {
			logger.ErrorContext(ctx, "embedding batch failed", "batch_start", start, "batch_size", end-start, "error", err)
			return nil, err
		}
		out = append(out, vecs...)
	}

	logger.DebugContext(ctx, "embedded texts", "count", len(texts), "model", c.Model)
	return out, nil
}

func (c *EmbeddingsClient) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Providers reject empty strings; a single space embeds to a neutral vector.
	inputs := make([]string, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			t = " "
		}
		inputs[i] = t
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: openai.EmbeddingModel(c.Model),
	}
	if strings.HasPrefix(c.Model, "text-embedding-3") && c.Dimensions > 0 {
		params.Dimensions = openai.Int(int64(c.Dimensions))
	}

	resp, err := c.api.Embeddings.New(callCtx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbeddingFailed, len(texts), len(resp.Data))
	}

	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		idx := int(item.Index)
		if idx < 0 || idx >= len(texts) || out[idx] != nil {
			return nil, fmt.Errorf("%w: invalid embedding index %d", ErrEmbeddingFailed, item.Index)
		}
		if c.Dimensions > 0 && len(item.Embedding) != c.Dimensions {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, expected %d", ErrEmbeddingFailed, idx, len(item.Embedding), c.Dimensions)
		}
		vec := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		out[idx] = vec
	}
	return out, nil
}
