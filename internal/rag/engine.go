package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf16"

	"documind/internal/contextutil"
	"documind/internal/llm"
	"documind/internal/storage"
	"documind/internal/vectorstore"
)

const (
	DefaultSearchLimit   = 20
	DefaultAnswerSources = 10
	DefaultMinScore      = 0.2
	maxSearchLimit       = 100

	// UnknownDocument labels hits whose metadata record is missing.
	UnknownDocument = "Unknown Document"
	// NoResultsAnswer is returned when nothing relevant was retrieved.
	NoResultsAnswer = "I couldn't find any relevant information in your documents to answer this question. Try asking about topics covered in your uploaded documents."

	emptyAnswer = "I was unable to generate an answer."
)

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("query is required")

const answerSystemPrompt = "You are a helpful assistant that answers questions based on provided document context. " +
	"Always cite your sources and be truthful about the limitations of your knowledge."

const answerPromptTemplate = `You are an intelligent document assistant. Answer the user's question based on the provided context from their documents.

Context from documents:
%s

User Question: %s

Instructions:
- Answer the question based ONLY on the provided context
- If the context doesn't contain enough information to answer the question, say so clearly
- Cite specific sources when making claims (e.g., "According to [Source 1]...")
- Be concise but thorough
- If you're uncertain about something, express that uncertainty
- Don't make assumptions beyond what's stated in the context

Answer:`

// QueryEmbedder embeds a single query.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer generates text from a prompt.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// DocumentFinder looks up document metadata records.
type DocumentFinder interface {
	Find(ctx context.Context, f storage.Filter) ([]storage.Document, error)
}

// Engine provides retrieval and grounded answers over a user's documents.
type Engine interface {
	// Search returns chunks ranked by descending similarity to the query.
	Search(ctx context.Context, req SearchRequest) ([]SearchResult, error)
	// Answer retrieves sources and asks the model to answer from them only.
	Answer(ctx context.Context, req AnswerRequest) (AnswerResponse, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	embedder  QueryEmbedder
	vectors   vectorstore.VectorStore
	documents DocumentFinder
	llm       Completer
}

// NewEngine creates a new RAG engine.
func NewEngine(embedder QueryEmbedder, vectors vectorstore.VectorStore, documents DocumentFinder, completer Completer) Engine {
	return &ragEngine{
		embedder:  embedder,
		vectors:   vectors,
		documents: documents,
		llm:       completer,
	}
}

// Search embeds the query, runs a user-scoped vector search, and joins each
// hit with its document's filename and upload time.
func (e *ragEngine) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)
	minScore := req.MinScore
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := e.vectors.Search(ctx, vectorstore.SearchRequest{
		Vector:         vector,
		UserID:         req.UserID,
		Limit:          limit,
		ScoreThreshold: float32(minScore),
		DocIDs:         req.DocIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}
	logger.InfoContext(ctx, "vector search completed", "results_count", len(hits), "limit", limit)
	if len(hits) == 0 {
		return []SearchResult{}, nil
	}

	docs := e.documentInfo(ctx, req.UserID, hits)
	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		info, ok := docs[hit.Payload.DocID]
		if !ok {
			info = DocumentInfo{Filename: UnknownDocument}
		}
		results = append(results, SearchResult{
			ChunkID:    hit.PointID,
			DocID:      hit.Payload.DocID,
			ChunkIndex: hit.Payload.ChunkIndex,
			Text:       hit.Payload.Text,
			Score:      float64(hit.Score),
			Document:   info,
		})
	}
	return results, nil
}

// documentInfo loads metadata for the documents referenced by hits. A lookup
// failure degrades every hit to UnknownDocument.
func (e *ragEngine) documentInfo(ctx context.Context, userID string, hits []vectorstore.SearchResult) map[string]DocumentInfo {
	seen := make(map[string]bool)
	var ids []string
	for _, h := range hits {
		if id := h.Payload.DocID; id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	out := make(map[string]DocumentInfo, len(ids))
	if len(ids) == 0 {
		return out
	}
	docs, err := e.documents.Find(ctx, storage.Filter{UserID: userID, DocIDs: ids})
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to load document metadata for search results", "error", err)
		return out
	}
	for _, d := range docs {
		out[d.DocID] = DocumentInfo{Filename: d.Filename, UploadedAt: d.UploadedAt}
	}
	return out
}

// Answer retrieves sources and generates an answer restricted to them. An
// empty retrieval is a normal outcome reported through NoResults.
func (e *ragEngine) Answer(ctx context.Context, req AnswerRequest) (AnswerResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultAnswerSources
	}
	sources, err := e.Search(ctx, SearchRequest{
		Query:    req.Query,
		UserID:   req.UserID,
		Limit:    maxResults,
		MinScore: req.MinScore,
		DocIDs:   req.DocIDs,
	})
	if err != nil {
		return AnswerResponse{}, err
	}
	if len(sources) == 0 {
		logger.InfoContext(ctx, "no search results found")
		return AnswerResponse{
			Answer:    NoResultsAnswer,
			Sources:   []SearchResult{},
			NoResults: true,
		}, nil
	}

	answer, err := e.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: answerSystemPrompt,
		UserPrompt:   fmt.Sprintf(answerPromptTemplate, BuildContext(sources), strings.TrimSpace(req.Query)),
		Temperature:  0.3,
		MaxTokens:    1000,
	})
	if err != nil {
		return AnswerResponse{}, fmt.Errorf("failed to generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = emptyAnswer
	}

	confidence := Confidence(sources, answer)
	logger.InfoContext(ctx, "answer generated", "sources", len(sources), "answer_length", len(answer), "confidence", confidence)
	return AnswerResponse{
		Answer:     answer,
		Sources:    sources,
		Confidence: confidence,
	}, nil
}

// BuildContext lists sources as "[Source i - filename]:" blocks, 1-based.
func BuildContext(sources []SearchResult) string {
	blocks := make([]string, len(sources))
	for i, s := range sources {
		blocks[i] = fmt.Sprintf("[Source %d - %s]:\n%s", i+1, s.Document.Filename, s.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// Confidence blends retrieval quality with answer substance:
// min(1, mean score * 0.8 + 0.2 if the answer exceeds 50 characters).
// Characters are counted as UTF-16 code units.
func Confidence(sources []SearchResult, answer string) float64 {
	if len(sources) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sources {
		sum += s.Score
	}
	c := sum / float64(len(sources)) * 0.8
	if len(utf16.Encode([]rune(answer))) > 50 {
		c += 0.2
	}
	return math.Min(c, 1.0)
}
