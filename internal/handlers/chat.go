package handlers

import (
	"net/http"

	"documind/internal/contextutil"
	"documind/internal/rag"
	"documind/internal/service"
)

// ChatHandler handles question answering and semantic search.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest represents the HTTP request payload for chat.
//
// swagger:model ChatRequest
type ChatRequest struct {
	Message    string   `json:"message"`
	MaxResults int      `json:"maxResults,omitempty"`
	DocIDs     []string `json:"docIds,omitempty"`
}

// SearchRequest represents the HTTP request payload for search.
//
// swagger:model SearchRequest
type SearchRequest struct {
	Query    string   `json:"query"`
	Limit    int      `json:"limit,omitempty"`
	MinScore float64  `json:"minScore,omitempty"`
	DocIDs   []string `json:"docIds,omitempty"`
}

// SearchResponse wraps ranked search results.
type SearchResponse struct {
	Results []rag.SearchResult `json:"results"`
	Total   int                `json:"total"`
}

// ServeHTTP answers a question from the caller's documents.
//
// swagger:route POST /api/chat chat
//
// Returns {answer, sources, confidence}. A question with no relevant chunks
// gets a fixed answer with empty sources and zero confidence.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.chatService.ProcessChat(ctx, service.ChatRequest{
		UserID:     contextutil.UserIDFromContext(ctx),
		Message:    req.Message,
		MaxResults: req.MaxResults,
		DocIDs:     req.DocIDs,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process chat request")
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Search returns the caller's chunks ranked by similarity to the query.
//
// swagger:route POST /api/search search
func (h *ChatHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	results, err := h.chatService.Search(ctx, service.SearchRequest{
		UserID:   contextutil.UserIDFromContext(ctx),
		Query:    req.Query,
		Limit:    req.Limit,
		MinScore: req.MinScore,
		DocIDs:   req.DocIDs,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to search documents")
		return
	}
	if results == nil {
		results = []rag.SearchResult{}
	}
	writeJSON(ctx, w, http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}
