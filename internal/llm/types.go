package llm

import "errors"

var (
	// ErrCompletionFailed is returned when the chat model call fails.
	ErrCompletionFailed = errors.New("llm completion failed")
	// ErrLLMParseFailed is returned when model output does not match the expected shape.
	ErrLLMParseFailed = errors.New("llm output parse failed")
	// ErrEmbeddingFailed is returned when the embedding provider fails or
	// returns vectors of the wrong shape.
	ErrEmbeddingFailed = errors.New("embedding failed")
)

// CompletionRequest holds a single-turn prompt and its sampling parameters.
type CompletionRequest struct {
	// Model overrides the client's default model when set.
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	// MaxTokens caps the generated tokens. Zero leaves the provider default.
	MaxTokens int
}
