package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"documind/internal/contextutil"
)

// ClientConfig configures the chat completion client.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds each completion call.
	Timeout time.Duration
	// RequestsPerMinute throttles outgoing calls. Zero disables throttling.
	RequestsPerMinute int
	// MaxRetries is passed to the provider SDK. Negative keeps the SDK default.
	MaxRetries int
}

// Client sends chat completions to an OpenAI-compatible API.
type Client struct {
	api     openai.Client
	model   string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewClient creates a new LLM client.
func NewClient(cfg ClientConfig) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		burst := max(cfg.RequestsPerMinute/10, 1)
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), burst)
	}

	return &Client{
		api:     openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: timeout,
		limiter: limiter,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "llm",
			MaxRequests: 3,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// Complete sends a system + user prompt and returns the model's text reply.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	params := c.params(req)
	return c.send(ctx, params)
}

// CompleteJSON asks the model for output matching the JSON schema of out and
// decodes the reply strictly into out. Shape mismatches return ErrLLMParseFailed.
func (c *Client) CompleteJSON(ctx context.Context, req CompletionRequest, schemaName string, out any) error {
	params := c.params(req)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   schemaName,
				Schema: GenerateSchema(out),
				Strict: openai.Bool(true),
			},
		},
	}

	content, err := c.send(ctx, params)
	if err != nil {
		return err
	}
	return DecodeStrict(content, out)
}

func (c *Client) params(req CompletionRequest) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = c.model
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(req.UserPrompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	return params
}

func (c *Client) send(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %w", ErrCompletionFailed, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.api.Chat.Completions.New(callCtx, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logger.WarnContext(ctx, "llm circuit open, rejecting call")
		} else {
			logger.ErrorContext(ctx, "llm completion failed", "model", params.Model, "error", err)
		}
		return "", fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}

	completion := res.(*openai.ChatCompletion)
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrCompletionFailed)
	}

	logger.DebugContext(ctx, "llm completion",
		"model", params.Model,
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return completion.Choices[0].Message.Content, nil
}
