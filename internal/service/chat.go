package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService documind/internal/service ChatService

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"documind/internal/contextutil"
	"documind/internal/rag"
	"documind/internal/vectorstore"
)

const maxMessageLength = 4000

// ChatRequest represents a question about the user's documents.
type ChatRequest struct {
	UserID     string `validate:"required"`
	Message    string
	MaxResults int `validate:"gte=0,lte=50"`
	DocIDs     []string
}

// SearchRequest represents a semantic search request in the domain layer.
type SearchRequest struct {
	UserID   string `validate:"required"`
	Query    string
	Limit    int     `validate:"gte=0,lte=100"`
	MinScore float64 `validate:"gte=0,lte=1"`
	DocIDs   []string
}

// ChatService answers questions and runs searches over a user's documents.
type ChatService interface {
	// ProcessChat answers a question from retrieved chunks.
	ProcessChat(ctx context.Context, req ChatRequest) (rag.AnswerResponse, error)
	// Search returns chunks ranked by similarity to the query.
	Search(ctx context.Context, req SearchRequest) ([]rag.SearchResult, error)
}

// chatService implements ChatService.
type chatService struct {
	engine rag.Engine
}

// NewChatService creates a new ChatService.
func NewChatService(engine rag.Engine) ChatService {
	return &chatService{engine: engine}
}

// ProcessChat processes a chat request.
func (s *chatService) ProcessChat(ctx context.Context, req ChatRequest) (rag.AnswerResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateStruct(req); err != nil {
		return rag.AnswerResponse{}, err
	}
	if err := validateText("message", req.Message); err != nil {
		logger.WarnContext(ctx, "invalid message in chat request", "error", err)
		return rag.AnswerResponse{}, err
	}

	resp, err := s.engine.Answer(ctx, rag.AnswerRequest{
		Query:      req.Message,
		UserID:     req.UserID,
		MaxResults: req.MaxResults,
		DocIDs:     req.DocIDs,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer question", "error", err)
		return rag.AnswerResponse{}, classify(err, "failed to answer question")
	}

	logger.InfoContext(ctx, "chat request processed successfully",
		"message_length", len(req.Message),
		"sources", len(resp.Sources),
		"no_results", resp.NoResults,
	)
	return resp, nil
}

// Search processes a search request.
func (s *chatService) Search(ctx context.Context, req SearchRequest) ([]rag.SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := validateText("query", req.Query); err != nil {
		return nil, err
	}

	results, err := s.engine.Search(ctx, rag.SearchRequest{
		Query:    req.Query,
		UserID:   req.UserID,
		Limit:    req.Limit,
		MinScore: req.MinScore,
		DocIDs:   req.DocIDs,
	})
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "error", err)
		return nil, classify(err, "search failed")
	}
	return results, nil
}

func validateText(field, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &ValidationError{Field: field, Message: "cannot be empty"}
	}
	if len(text) > maxMessageLength {
		return &ValidationError{Field: field, Message: "is too long"}
	}
	return nil
}

// classify maps retrieval errors onto the service taxonomy. Store outages
// keep their identity so callers can answer 503.
func classify(err error, msg string) error {
	switch {
	case errors.Is(err, rag.ErrEmptyQuery):
		return &ValidationError{Field: "query", Message: "cannot be empty"}
	case errors.Is(err, vectorstore.ErrStoreUnavailable):
		return WrapError(err, msg)
	default:
		return fmt.Errorf("%s: %w: %w", msg, ErrExternalService, err)
	}
}
